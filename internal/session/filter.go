package session

import (
	"strings"

	"github.com/rdgames/ccs-session/internal/transport"
)

// StanzaFilter decides which frames belong to this session: base protocol
// frames, and frames whose destination address starts with the project id.
// The same predicate is used for inbound listening and for the outbound
// logging interceptor.
type StanzaFilter struct {
	projectID string
}

// NewStanzaFilter creates a filter bound to a project id prefix.
func NewStanzaFilter(projectID string) *StanzaFilter {
	return &StanzaFilter{projectID: projectID}
}

// Accept reports whether the frame belongs to the session.
func (f *StanzaFilter) Accept(st transport.Stanza) bool {
	if st.Kind == transport.KindMessage {
		return true
	}
	return st.To != "" && strings.HasPrefix(st.To, f.projectID)
}
