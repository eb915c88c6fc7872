package models

import (
	"github.com/ternarybob/roundtable/internal/interfaces"
)

// InterviewState is the accumulated state of one analyst's interview.
// Messages and Context only grow during a run; nothing is reordered or truncated.
type InterviewState struct {
	Analyst    Analyst              `json:"analyst"`
	Messages   []interfaces.Message `json:"messages"`
	Context    []string             `json:"context"`
	MaxTurns   int                  `json:"max_turns"`
	Transcript string               `json:"transcript"`
}

// NewInterviewState starts an empty interview for analyst
func NewInterviewState(analyst Analyst, maxTurns int) *InterviewState {
	return &InterviewState{
		Analyst:  analyst,
		Messages: []interfaces.Message{},
		Context:  []string{},
		MaxTurns: maxTurns,
	}
}

// AppendMessage records a message at the end of the conversation
func (s *InterviewState) AppendMessage(msg interfaces.Message) {
	s.Messages = append(s.Messages, msg)
}

// AppendContext records one formatted search-result block
func (s *InterviewState) AppendContext(block string) {
	s.Context = append(s.Context, block)
}
