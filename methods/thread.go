package methods

import "pkt.systems/jmap/models"

// ThreadGet fetches threads.
type ThreadGet struct{ Get }

func (ThreadGet) MethodName() string     { return "Thread/get" }
func (ThreadGet) Capabilities() []string { return mailCapabilities }

// ThreadGetResponse lists the fetched threads.
type ThreadGetResponse struct {
	GetResponse
	List []models.Thread `jmap:"list"`
}

func (ThreadGetResponse) MethodName() string { return "Thread/get" }

// ThreadChanges lists thread changes since a state.
type ThreadChanges struct{ Changes }

func (ThreadChanges) MethodName() string     { return "Thread/changes" }
func (ThreadChanges) Capabilities() []string { return mailCapabilities }

// ThreadChangesResponse reports thread changes.
type ThreadChangesResponse struct{ ChangesResponse }

func (ThreadChangesResponse) MethodName() string { return "Thread/changes" }
