// Package algorithms builds the analytic graphs shipped with compgraph:
// word count, TF-IDF inverted index, PMI keywords and average road speed.
//
// Every constructor only describes a graph. Run it with graph.Run and the
// named sources it expects.
package algorithms

import (
	"math"
	"unicode/utf8"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/extsort"
	"github.com/kbukum/compgraph/graph"
	"github.com/kbukum/compgraph/operations"
	"github.com/kbukum/compgraph/row"
)

// Option customises column names and sort settings.
type Option func(*config)

type config struct {
	docColumn    string
	textColumn   string
	resultColumn string
	sort         []extsort.Option
}

// WithDocColumn sets the document id column. Default "doc_id".
func WithDocColumn(name string) Option {
	return func(c *config) { c.docColumn = name }
}

// WithTextColumn sets the text column. Default "text".
func WithTextColumn(name string) Option {
	return func(c *config) { c.textColumn = name }
}

// WithResultColumn sets the output column of the graph's main metric.
func WithResultColumn(name string) Option {
	return func(c *config) { c.resultColumn = name }
}

// WithSortOptions applies opts to every sort in the graph.
func WithSortOptions(opts ...extsort.Option) Option {
	return func(c *config) { c.sort = append(c.sort, opts...) }
}

func newConfig(result string, opts []Option) config {
	c := config{docColumn: "doc_id", textColumn: "text", resultColumn: result}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// words splits the text column of input into one lowercase word per row.
func (c config) words(input string) *graph.Graph {
	return graph.FromIter(input).
		Map(operations.FilterPunctuation(c.textColumn)).
		Map(operations.LowerCase(c.textColumn)).
		Map(operations.Split(c.textColumn))
}

// WordCount counts every word of the text column over all rows, ordered by
// count, then word. Result column default "count".
func WordCount(input string, opts ...Option) *graph.Graph {
	c := newConfig("count", opts)
	return c.words(input).
		Sort([]string{c.textColumn}, c.sort...).
		Reduce(operations.Count(c.resultColumn), []string{c.textColumn}).
		Sort([]string{c.resultColumn, c.textColumn}, c.sort...)
}

// InvertedIndex scores every (document, word) pair by TF-IDF and keeps the
// three best documents per word. Result column default "tf_idf".
func InvertedIndex(input string, opts ...Option) *graph.Graph {
	c := newConfig("tf_idf", opts)
	doc, text := c.docColumn, c.textColumn
	words := c.words(input)

	docCount := graph.FromIter(input).
		Reduce(operations.Count("doc_count"), nil)

	idf := words.
		Sort([]string{doc, text}, c.sort...).
		Reduce(operations.First(), []string{doc, text}).
		Sort([]string{text}, c.sort...).
		Reduce(operations.Count("docs_with_word"), []string{text}).
		Join(operations.InnerJoiner(), docCount, nil).
		Map(operations.ComputeColumn("idf", func(r row.Row) (any, error) {
			withWord, err := number(r, "docs_with_word")
			if err != nil || withWord == 0 {
				return 0.0, err
			}
			total, err := number(r, "doc_count")
			if err != nil {
				return nil, err
			}
			return math.Log(total / withWord), nil
		}))

	tf := words.
		Sort([]string{doc}, c.sort...).
		Reduce(operations.TermFrequency(text, "tf"), []string{doc}).
		Sort([]string{text}, c.sort...)

	return tf.
		Join(operations.InnerJoiner(), idf, []string{text}).
		Map(operations.ComputeColumn(c.resultColumn, func(r row.Row) (any, error) {
			return product(r, "tf", "idf")
		})).
		Sort([]string{text}, c.sort...).
		Reduce(operations.TopN(c.resultColumn, 3), []string{text}).
		Map(operations.Project([]string{doc, text, c.resultColumn}))
}

// PMI ranks the words of every document by pointwise mutual information
// and keeps the top ten. Only words longer than four characters that occur
// at least twice in a document are considered. Result column default "pmi".
func PMI(input string, opts ...Option) *graph.Graph {
	c := newConfig("pmi", opts)
	doc, text := c.docColumn, c.textColumn

	docCounts := c.words(input).
		Sort([]string{doc, text}, c.sort...).
		Reduce(operations.Count("doc_count"), []string{doc, text}).
		Map(operations.Filter(func(r row.Row) bool {
			w, _ := r[text].(string)
			n, _ := row.ToFloat(r["doc_count"])
			return utf8.RuneCountInString(w) > 4 && n >= 2
		}))

	docLengths := docCounts.
		Sort([]string{doc}, c.sort...).
		Reduce(operations.Sum("doc_count"), []string{doc}).
		Map(operations.Project([]string{doc, "doc_count"}))

	globalCounts := docCounts.
		Sort([]string{text}, c.sort...).
		Reduce(operations.Sum("doc_count"), []string{text})

	totalWords := docCounts.Reduce(operations.Sum("doc_count"), nil)

	globalFreq := globalCounts.
		Join(operations.InnerJoiner(), totalWords, nil).
		Map(ratio("doc_count_1", "doc_count_2", "global_freq")).
		Map(operations.Project([]string{text, "global_freq"})).
		Sort([]string{text}, c.sort...)

	docFreq := docCounts.
		Join(operations.InnerJoiner(), docLengths, []string{doc}).
		Map(ratio("doc_count_1", "doc_count_2", "doc_freq")).
		Sort([]string{text, doc}, c.sort...)

	return docFreq.
		Join(operations.InnerJoiner(), globalFreq, []string{text}).
		Map(operations.ComputeColumn(c.resultColumn, func(r row.Row) (any, error) {
			q, err := quotient(r, "doc_freq", "global_freq")
			if err != nil {
				return nil, err
			}
			return math.Log(q), nil
		})).
		Map(operations.Project([]string{doc, text, c.resultColumn})).
		Sort([]string{doc}, c.sort...).
		Reduce(operations.TopN(c.resultColumn, 10), []string{doc})
}

// ratio stores num/den in result, or 0 when den is 0.
func ratio(num, den, result string) operations.MapperFunc {
	return operations.ComputeColumn(result, func(r row.Row) (any, error) {
		d, err := number(r, den)
		if err != nil || d == 0 {
			return 0.0, err
		}
		return quotient(r, num, den)
	})
}

func quotient(r row.Row, num, den string) (float64, error) {
	n, err := number(r, num)
	if err != nil {
		return 0, err
	}
	d, err := number(r, den)
	if err != nil {
		return 0, err
	}
	return n / d, nil
}

func product(r row.Row, a, b string) (float64, error) {
	x, err := number(r, a)
	if err != nil {
		return 0, err
	}
	y, err := number(r, b)
	if err != nil {
		return 0, err
	}
	return x * y, nil
}

// number reads a numeric column as float64.
func number(r row.Row, column string) (float64, error) {
	v, err := r.Get(column)
	if err != nil {
		return 0, err
	}
	f, ok := row.ToFloat(v)
	if !ok {
		return 0, errors.InvalidInput(column, "not a number")
	}
	return f, nil
}
