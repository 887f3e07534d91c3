package lexiclass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/lexiclass/pkg/lexiclass/model"
	"github.com/cognicore/lexiclass/pkg/lexiclass/stoplist"
)

const centroidKind = "test/centroid"

// centroid scores each label by the dot product of the input with the mean
// feature vector of that label's documents.
type centroid struct {
	W [][]float64 `json:"w"`
}

func (m *centroid) Kind() string { return centroidKind }

func (m *centroid) Predict(in []float64) ([]float64, error) {
	out := make([]float64, len(m.W))
	for j, row := range m.W {
		if len(row) != len(in) {
			return nil, fmt.Errorf("want %d inputs, got %d", len(row), len(in))
		}
		for i, v := range in {
			out[j] += row[i] * v
		}
	}
	return out, nil
}

func (m *centroid) MarshalBinary() ([]byte, error) { return json.Marshal(m) }

type centroidTrainer struct{}

func (centroidTrainer) Fit(_ context.Context, pairs []model.Pair) (model.Model, model.Report, error) {
	ins, outs := len(pairs[0].Input), len(pairs[0].Output)
	w := make([][]float64, outs)
	counts := make([]float64, outs)
	for j := range w {
		w[j] = make([]float64, ins)
	}
	for _, p := range pairs {
		for j, o := range p.Output {
			if o != 1 {
				continue
			}
			counts[j]++
			for i, v := range p.Input {
				w[j][i] += v
			}
		}
	}
	for j := range w {
		if counts[j] == 0 {
			continue
		}
		for i := range w[j] {
			w[j][i] /= counts[j]
		}
	}
	return &centroid{W: w}, model.Report{Iterations: 1}, nil
}

func init() {
	model.Register(centroidKind, func(data []byte) (model.Model, error) {
		var m centroid
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return &m, nil
	})
}

func score(t *testing.T, c *Classifier, in Input, label string) float64 {
	t.Helper()
	ranked, err := c.GetClassifications(in)
	require.NoError(t, err)
	for _, r := range ranked {
		if r.Label == label {
			return r.Value
		}
	}
	t.Fatalf("label %q missing from %v", label, ranked)
	return 0
}

func literatureVsComputing(c *Classifier) {
	c.AddDocument(Text("Fixed the box"), "computing")
	c.AddDocument(Text("Write some code"), "computing")
	c.AddDocument(Text("A nasty script with bad code"), "computing")
	c.AddDocument(Text("Write a book"), "literature")
	c.AddDocument(Text("Read a book"), "literature")
	c.AddDocument(Text("Study the books"), "literature")
}

func TestClassifyPretokenized(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	c := New(Options{})
	c.AddDocument(Tokens("fix", "box"), "computing")
	c.AddDocument(Tokens("write", "code"), "computing")
	c.AddDocument(Tokens("script", "code"), "computing")
	c.AddDocument(Tokens("write", "book"), "literature")
	c.AddDocument(Tokens("read", "book"), "literature")
	c.AddDocument(Tokens("study", "book"), "literature")
	req.NoError(c.Train(ctx))

	got, err := c.Classify(Tokens("bug", "code"))
	req.NoError(err)
	req.Equal("computing", got)

	got, err = c.Classify(Tokens("read", "thing"))
	req.NoError(err)
	req.Equal("literature", got)
}

func TestClassifyText(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	c := New(Options{})
	literatureVsComputing(c)
	req.NoError(c.Train(ctx))

	got, err := c.Classify(Text("a bug in the code"))
	req.NoError(err)
	req.Equal("computing", got)

	got, err = c.Classify(Text("read all the books"))
	req.NoError(err)
	req.Equal("literature", got)
}

func TestGetClassificationsRanking(t *testing.T) {
	req := require.New(t)

	c := New(Options{Trainer: centroidTrainer{}})
	c.AddDocument(Tokens("alpha"), "first")
	c.AddDocument(Tokens("beta"), "second")
	c.AddDocument(Tokens("gamma"), "third")
	req.NoError(c.Train(context.Background()))

	ranked, err := c.GetClassifications(Tokens("gamma"))
	req.NoError(err)
	req.Len(ranked, 3)
	req.Equal("third", ranked[0].Label)
	req.InDelta(1.0, ranked[0].Value, 1e-12)
	// equal scores keep registration order
	req.Equal("first", ranked[1].Label)
	req.Equal("second", ranked[2].Label)

	ranked, err = c.GetClassifications(Tokens("unseen"))
	req.NoError(err)
	req.Equal([]string{"first", "second", "third"},
		[]string{ranked[0].Label, ranked[1].Label, ranked[2].Label})
}

func TestRemoveDocumentReducesEvidence(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	c := New(Options{Trainer: centroidTrainer{}})
	c.AddDocument(Tokens("foo", "bar", "baz"), "good")
	c.AddDocument(Tokens("qux", "zooby"), "bad")
	c.AddDocument(Tokens("asdf", "qwer"), "bad")
	req.NoError(c.Train(ctx))

	got, err := c.Classify(Tokens("foo"))
	req.NoError(err)
	req.Equal("good", got)
	got, err = c.Classify(Tokens("qux"))
	req.NoError(err)
	req.Equal("bad", got)

	before := score(t, c, Tokens("zooby"), "bad") - score(t, c, Tokens("zooby"), "good")

	req.True(c.RemoveDocument(Tokens("qux", "zooby"), "bad"))
	req.Len(c.Documents(), 2)
	req.NoError(c.Retrain(ctx))

	after := score(t, c, Tokens("zooby"), "bad") - score(t, c, Tokens("zooby"), "good")
	req.LessOrEqual(after, before)
	req.Less(after, 0.5)

	// registries are not shrunk by removal
	req.Contains(c.Vocabulary(), "zooby")

	c.AddDocument(Tokens("qux", "zooby"), "good")
	req.NoError(c.Retrain(ctx))
	got, err = c.Classify(Tokens("qux"))
	req.NoError(err)
	req.Equal("good", got)
	got, err = c.Classify(Tokens("foo"))
	req.NoError(err)
	req.Equal("good", got)
}

func TestRemoveAndRelabelWithNetwork(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	c := New(Options{})
	c.AddDocument(Tokens("foo", "bar", "baz"), "good")
	c.AddDocument(Tokens("qux", "zooby"), "bad")
	c.AddDocument(Tokens("asdf", "qwer"), "bad")
	req.NoError(c.Train(ctx))

	got, err := c.Classify(Tokens("foo"))
	req.NoError(err)
	req.Equal("good", got)
	got, err = c.Classify(Tokens("qux"))
	req.NoError(err)
	req.Equal("bad", got)

	req.True(c.RemoveDocument(Tokens("qux", "zooby"), "bad"))
	req.NoError(c.Retrain(ctx))
	req.Less(score(t, c, Tokens("zooby"), "good"), score(t, c, Tokens("zooby"), "bad"))

	c.AddDocument(Tokens("qux", "zooby"), "good")
	req.NoError(c.Retrain(ctx))

	got, err = c.Classify(Tokens("qux"))
	req.NoError(err)
	req.Equal("good", got)
	got, err = c.Classify(Tokens("foo"))
	req.NoError(err)
	req.Equal("good", got)
}

func TestRemoveDocumentMiss(t *testing.T) {
	req := require.New(t)

	c := New(Options{})
	c.AddDocument(Tokens("foo", "bar"), "good")

	req.False(c.RemoveDocument(Tokens("foo", "bar"), "bad"))
	req.False(c.RemoveDocument(Tokens("bar", "foo"), "good"))
	req.Len(c.Documents(), 1)

	c.AddDocument(Tokens("foo", "bar"), "good")
	req.True(c.RemoveDocument(Tokens("foo", "bar"), "good"))
	req.Len(c.Documents(), 1)
}

func TestTrainErrors(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	c := New(Options{})
	_, err := c.Classify(Text("anything"))
	req.ErrorIs(err, ErrUntrained)
	_, err = c.GetClassifications(Text("anything"))
	req.ErrorIs(err, ErrUntrained)

	req.ErrorIs(c.Train(ctx), ErrEmptyTrainingSet)

	c.AddDocument(Tokens("foo"), "only")
	c.AddDocument(Tokens("bar"), "only")
	req.ErrorIs(c.Train(ctx), ErrEmptyTrainingSet)
	req.False(c.Trained())

	c = New(Options{})
	c.AddDocument(Text("the and a"), "x")
	c.AddDocument(Text("is are"), "y")
	req.ErrorIs(c.Train(ctx), ErrEmptyTrainingSet)
}

func TestTrainCanceled(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(Options{})
	c.AddDocument(Tokens("foo"), "a")
	c.AddDocument(Tokens("bar"), "b")
	req.ErrorIs(c.Train(ctx), context.Canceled)
	req.False(c.Trained())
}

func TestFailedTrainKeepsModel(t *testing.T) {
	req := require.New(t)

	c := New(Options{Trainer: centroidTrainer{}})
	c.AddDocument(Tokens("foo"), "a")
	c.AddDocument(Tokens("bar"), "b")
	req.NoError(c.Train(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.trainer = New(Options{}).trainer
	req.Error(c.Train(ctx))
	req.True(c.Trained())

	got, err := c.Classify(Tokens("bar"))
	req.NoError(err)
	req.Equal("b", got)
}

func TestRetrainIsDeterministic(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	c := New(Options{})
	literatureVsComputing(c)
	req.NoError(c.Train(ctx))
	first, err := c.GetClassifications(Text("a bug in the code"))
	req.NoError(err)

	req.NoError(c.Retrain(ctx))
	second, err := c.GetClassifications(Text("a bug in the code"))
	req.NoError(err)
	req.Equal(first, second)
}

func TestScoringIgnoresUntrainedAdditions(t *testing.T) {
	req := require.New(t)

	c := New(Options{})
	literatureVsComputing(c)
	req.NoError(c.Train(context.Background()))
	before, err := c.GetClassifications(Text("write the code"))
	req.NoError(err)

	c.AddDocument(Text("kick the ball"), "sports")
	after, err := c.GetClassifications(Text("write the code kick"))
	req.NoError(err)
	req.Len(after, 2)
	req.Equal(before, after)
}

func TestStopwordsDisabled(t *testing.T) {
	req := require.New(t)
	t.Cleanup(stoplist.Enable)
	stoplist.Disable()

	c := New(Options{})
	c.AddDocument(Text("are you there"), "first")
	c.AddDocument(Text("you there"), "second")
	req.NoError(c.Train(context.Background()))
	req.Equal([]string{"are", "you", "there"}, c.Vocabulary())

	got, err := c.Classify(Text("Hey you there"))
	req.NoError(err)
	req.Equal("second", got)

	got, err = c.Classify(Text("Hey are you there"))
	req.NoError(err)
	req.Equal("first", got)
}

func TestPrivateStoplistIgnoresToggle(t *testing.T) {
	req := require.New(t)
	t.Cleanup(stoplist.Enable)

	c := New(Options{Stopwords: stoplist.NewManager([]string{"foo"})})
	stoplist.Disable()
	c.AddDocument(Text("foo the bar"), "x")
	req.Equal([]string{"the", "bar"}, c.Documents()[0].Tokens)
}

func TestStateRoundTrip(t *testing.T) {
	for name, opts := range map[string]Options{
		"network":  {},
		"centroid": {Trainer: centroidTrainer{}},
	} {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)

			c := New(opts)
			literatureVsComputing(c)
			req.NoError(c.Train(context.Background()))

			st, err := c.ToState()
			req.NoError(err)
			req.NotNil(st.Model)

			data, err := json.Marshal(st)
			req.NoError(err)
			var decoded State
			req.NoError(json.Unmarshal(data, &decoded))

			restored, err := FromState(decoded, opts)
			req.NoError(err)
			req.True(restored.Trained())
			req.Equal(c.Vocabulary(), restored.Vocabulary())
			req.Equal(c.Labels(), restored.Labels())
			req.Equal(c.Documents(), restored.Documents())

			for _, q := range []string{"a bug in the code", "read all the books", "nothing known"} {
				want, err := c.GetClassifications(Text(q))
				req.NoError(err)
				got, err := restored.GetClassifications(Text(q))
				req.NoError(err)
				req.Equal(want, got, q)
			}
		})
	}
}

func TestUntrainedStateThenGrow(t *testing.T) {
	req := require.New(t)

	c := New(Options{})
	literatureVsComputing(c)
	st, err := c.ToState()
	req.NoError(err)
	req.Nil(st.Model)

	restored, err := FromState(st, Options{})
	req.NoError(err)
	req.False(restored.Trained())

	restored.AddDocument(Text("kick a ball"), "sports")
	restored.AddDocument(Text("hit some balls"), "sports")
	restored.AddDocument(Text("kick and punch"), "sports")
	req.NoError(restored.Train(context.Background()))

	for q, want := range map[string]string{
		"kick butt":          "sports",
		"a bug in the code":  "computing",
		"read all the books": "literature",
	} {
		got, err := restored.Classify(Text(q))
		req.NoError(err)
		req.Equal(want, got, q)
	}
}

func TestFromStateRejectsMalformed(t *testing.T) {
	req := require.New(t)

	_, err := FromState(State{
		Vocabulary: []string{"foo"},
		Labels:     []string{"a"},
		Documents:  nil,
	}, Options{})
	req.NoError(err)

	c := New(Options{Trainer: centroidTrainer{}})
	c.AddDocument(Tokens("foo"), "a")
	c.AddDocument(Tokens("bar"), "b")
	req.NoError(c.Train(context.Background()))
	good, err := c.ToState()
	req.NoError(err)

	st := good
	st.Labels = []string{"a"}
	_, err = FromState(st, Options{})
	req.ErrorIs(err, ErrMalformedState)

	st = good
	m := *good.Model
	m.Kind = "no/such-kind"
	st.Model = &m
	_, err = FromState(st, Options{})
	req.ErrorIs(err, ErrMalformedState)

	st = good
	m = *good.Model
	m.Data = []byte("not json")
	st.Model = &m
	_, err = FromState(st, Options{})
	req.ErrorIs(err, ErrMalformedState)

	st = good
	m = *good.Model
	m.Inputs = 1
	st.Model = &m
	_, err = FromState(st, Options{})
	req.ErrorIs(err, ErrMalformedState)
}

func TestFuture(t *testing.T) {
	req := require.New(t)

	f := newFuture[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Wait(ctx)
	req.ErrorIs(err, context.Canceled)

	f.complete(7, nil)
	<-f.Done()
	v, err := f.Wait(context.Background())
	req.NoError(err)
	req.Equal(7, v)

	boom := errors.New("boom")
	_, err = failed[int](boom).Wait(context.Background())
	req.ErrorIs(err, boom)
}
