package listen

// Recorder observes runtime activity. internal/metrics provides a
// Prometheus implementation.
type Recorder interface {
	// Subscribed is called for every attached subscription.
	Subscribed(s Strategy)

	// Cancelled is called once per cancelled subscription.
	Cancelled(s Strategy)

	// Published is called for every Publish.
	Published(topic string)

	// TeardownPass is called after a teardown pass with the number of marked
	// nodes visited and the number of slots cleared on each.
	TeardownPass(nodes, slots int)
}

type nopRecorder struct{}

func (nopRecorder) Subscribed(Strategy)   {}
func (nopRecorder) Cancelled(Strategy)    {}
func (nopRecorder) Published(string)      {}
func (nopRecorder) TeardownPass(int, int) {}
