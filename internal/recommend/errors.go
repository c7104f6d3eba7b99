package recommend

import "fmt"

// RecommendationError describes why similarity ranking could not produce a
// result. Recommend and Explain never return it; it is logged and reported
// in model.Result.Error while the caller receives the default list.
type RecommendationError struct {
	Op  string // ranking stage: vectorize, score, rank
	Msg string
	Err error
}

func (e *RecommendationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("recommend: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("recommend: %s: %s", e.Op, e.Msg)
}

func (e *RecommendationError) Unwrap() error { return e.Err }
