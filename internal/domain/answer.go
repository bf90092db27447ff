package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AnswerKind tags which field of Answer is meaningful.
type AnswerKind int

const (
	KindNone AnswerKind = iota
	KindChoice
	KindSequence
)

// Answer holds either a single choice or an ordered sequence. It is used both
// for canonical keys and for what a user entered.
//
// JSON form: a string for a choice, an array for a sequence, null for none.
type Answer struct {
	Kind     AnswerKind
	Choice   string
	Sequence []string
}

func ChoiceAnswer(value string) Answer {
	return Answer{Kind: KindChoice, Choice: value}
}

// SequenceAnswer copies items so later mutation of the caller's slice does not
// leak into the answer.
func SequenceAnswer(items []string) Answer {
	seq := make([]string, len(items))
	copy(seq, items)
	return Answer{Kind: KindSequence, Sequence: seq}
}

func (a Answer) IsZero() bool {
	return a.Kind == KindNone
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case KindChoice:
		return json.Marshal(a.Choice)
	case KindSequence:
		if a.Sequence == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Sequence)
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = ChoiceAnswer(s)
	case '[':
		var seq []string
		if err := json.Unmarshal(data, &seq); err != nil {
			return err
		}
		if seq == nil {
			seq = []string{}
		}
		*a = Answer{Kind: KindSequence, Sequence: seq}
	default:
		return fmt.Errorf("answer must be a string or an array of strings")
	}
	return nil
}
