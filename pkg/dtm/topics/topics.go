package topics

import (
	"math"
	"sort"
)

// smoothing floor for a vocabulary term missing from one topic's
// posterior while present in another's
const probFloor = 1e-12

// Model is an externally trained topic model, reduced to the two read
// operations the adapter needs. Nothing else about the estimator
// leaks into this package.
type Model interface {
	// TermPosterior returns term -> p(term|topic) for one topic.
	TermPosterior(topic int) map[string]float64
	// TopicPosterior returns p(topic) per topic; its length is the
	// topic count.
	TopicPosterior() []float64
}

// Trained is a concrete Model built from supplied distributions.
type Trained struct {
	termProbs []map[string]float64
	priors    []float64
}

// NewTrained wraps externally computed posterior distributions. The
// slices are indexed by topic and must be of equal length.
func NewTrained(termProbs []map[string]float64, priors []float64) *Trained {
	return &Trained{termProbs: termProbs, priors: priors}
}

// TermPosterior implements Model.
func (t *Trained) TermPosterior(topic int) map[string]float64 {
	return t.termProbs[topic]
}

// TopicPosterior implements Model.
func (t *Trained) TopicPosterior() []float64 {
	return t.priors
}

// Assignment is the outcome of mapping one document row against a
// model. When Determined is false the document shared no vocabulary
// with the model and no topic, label, or margin is available.
type Assignment struct {
	Determined    bool
	Topic         int
	Label         string
	Margin        float64
	Probabilities []float64
}

// Assigner maps document term-count rows to topics.
type Assigner struct {
	model  Model
	labels []string
}

// NewAssigner creates an assigner. labels may be nil; otherwise it is
// indexed by topic.
func NewAssigner(model Model, labels []string) *Assigner {
	return &Assigner{model: model, labels: labels}
}

// Assign scores one document's term counts against every topic and
// returns the most probable topic with a confidence margin: the
// probability gap between the best and second-best topic. A document
// with no term in the model vocabulary yields an undetermined
// assignment, never a default topic.
func (a *Assigner) Assign(row map[string]int) Assignment {
	priors := a.model.TopicPosterior()
	k := len(priors)
	if k == 0 {
		return Assignment{}
	}

	known := false
	logScores := make([]float64, k)
	for t := 0; t < k; t++ {
		dist := a.model.TermPosterior(t)
		score := math.Log(math.Max(priors[t], probFloor))
		for term, count := range row {
			if count <= 0 {
				continue
			}
			p, inTopic := dist[term]
			if !inTopic {
				if !a.inVocabulary(term) {
					continue
				}
				p = probFloor
			}
			known = true
			score += float64(count) * math.Log(math.Max(p, probFloor))
		}
		logScores[t] = score
	}
	if !known {
		return Assignment{}
	}

	probs := softmax(logScores)
	best, second := 0, -1
	for t := 1; t < k; t++ {
		if probs[t] > probs[best] {
			second = best
			best = t
		} else if second < 0 || probs[t] > probs[second] {
			second = t
		}
	}

	margin := probs[best]
	if second >= 0 {
		margin = probs[best] - probs[second]
	}

	out := Assignment{
		Determined:    true,
		Topic:         best,
		Margin:        margin,
		Probabilities: probs,
	}
	if best < len(a.labels) {
		out.Label = a.labels[best]
	}
	return out
}

// inVocabulary reports whether any topic's posterior knows the term.
func (a *Assigner) inVocabulary(term string) bool {
	for t := range a.model.TopicPosterior() {
		if _, ok := a.model.TermPosterior(t)[term]; ok {
			return true
		}
	}
	return false
}

// TermProb is one term with its posterior probability in a topic.
type TermProb struct {
	Term string
	Prob float64
}

// TopTerms returns the terms of one topic whose posterior probability
// is at least minProb, ordered by descending probability, ties by term
// text. minTerms states how many qualifying terms the caller wants;
// when fewer clear the bar, only those that clear are returned: the
// bar is never relaxed and terms are never fabricated to reach it.
func (a *Assigner) TopTerms(topic, minTerms int, minProb float64) []TermProb {
	dist := a.model.TermPosterior(topic)

	if minTerms < 0 {
		minTerms = 0
	}
	out := make([]TermProb, 0, minTerms)
	for term, p := range dist {
		if p >= minProb {
			out = append(out, TermProb{Term: term, Prob: p})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Prob != out[j].Prob {
			return out[i].Prob > out[j].Prob
		}
		return out[i].Term < out[j].Term
	})
	return out
}

func softmax(logScores []float64) []float64 {
	max := logScores[0]
	for _, s := range logScores[1:] {
		if s > max {
			max = s
		}
	}
	probs := make([]float64, len(logScores))
	var sum float64
	for i, s := range logScores {
		probs[i] = math.Exp(s - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
