package web

import "sync"

const noticeInFlight = "Your previous request is still being processed"

// inflightGuard admits one pending submission per session and action.
type inflightGuard struct {
	pending sync.Map
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{}
}

// acquire claims key. The returned release must be called once the action
// finishes; ok is false while another holder has it.
func (g *inflightGuard) acquire(key string) (release func(), ok bool) {
	if _, loaded := g.pending.LoadOrStore(key, struct{}{}); loaded {
		return func() {}, false
	}
	return func() { g.pending.Delete(key) }, true
}
