package dom

import "log/slog"

// Stats counts mutations applied to attached nodes.
type Stats struct {
	Insert     int
	Remove     int
	SetAttr    int
	RemoveAttr int
	SetText    int
}

// Total returns the sum of all counters.
func (s Stats) Total() int {
	return s.Insert + s.Remove + s.SetAttr + s.RemoveAttr + s.SetText
}

// LogValue implements [slog.LogValuer].
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("insert", s.Insert),
		slog.Int("remove", s.Remove),
		slog.Int("set_attr", s.SetAttr),
		slog.Int("remove_attr", s.RemoveAttr),
		slog.Int("set_text", s.SetText),
	)
}

// Recorder is a [Tree] that counts the mutations it forwards to another
// Tree. Creating and cloning nodes are not counted.
type Recorder struct {
	Tree
	stats Stats
}

// NewRecorder returns a Recorder forwarding to t, or to [HTML] when t is nil.
func NewRecorder(t Tree) *Recorder {
	if t == nil {
		t = HTML{}
	}

	return &Recorder{Tree: t}
}

// Stats returns the counters accumulated since the last [Recorder.Reset].
func (r *Recorder) Stats() Stats { return r.stats }

// Reset zeroes all counters.
func (r *Recorder) Reset() { r.stats = Stats{} }

// InsertBefore implements [Tree].
func (r *Recorder) InsertBefore(parent, n, ref *Node) {
	if n != ref {
		r.stats.Insert++
	}

	r.Tree.InsertBefore(parent, n, ref)
}

// RemoveChild implements [Tree].
func (r *Recorder) RemoveChild(parent, n *Node) {
	if parent != nil && n != nil && n.Parent == parent {
		r.stats.Remove++
	}

	r.Tree.RemoveChild(parent, n)
}

// SetAttr implements [Tree].
func (r *Recorder) SetAttr(n *Node, name, value string) {
	r.stats.SetAttr++
	r.Tree.SetAttr(n, name, value)
}

// RemoveAttr implements [Tree].
func (r *Recorder) RemoveAttr(n *Node, name string) {
	if _, ok := r.Tree.Attr(n, name); ok {
		r.stats.RemoveAttr++
	}

	r.Tree.RemoveAttr(n, name)
}

// SetText implements [Tree].
func (r *Recorder) SetText(n *Node, data string) {
	r.stats.SetText++
	r.Tree.SetText(n, data)
}
