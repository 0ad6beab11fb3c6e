// Package observable provides single-threaded observable values and lists.
// Listeners run synchronously on the goroutine that performed the write, in
// subscription order. Nested writes from inside a listener are allowed and
// dispatch immediately.
package observable

// Subscription identifies a registered listener. Unsubscribing twice is a
// no-op.
type Subscription struct {
	id    uint64
	owner interface{ unsubscribe(uint64) }
}

// Unsubscribe removes the listener. Safe to call on a zero Subscription.
func (s Subscription) Unsubscribe() {
	if s.owner != nil {
		s.owner.unsubscribe(s.id)
	}
}

type entry[F any] struct {
	id     uint64
	fn     F
	active bool
}

// registry keeps listeners in subscription order. Dispatch iterates over a
// snapshot so listeners added during a dispatch only see later changes.
type registry[F any] struct {
	next    uint64
	entries []*entry[F]
}

func (r *registry[F]) add(fn F) uint64 {
	r.next++
	r.entries = append(r.entries, &entry[F]{id: r.next, fn: fn, active: true})
	return r.next
}

func (r *registry[F]) unsubscribe(id uint64) {
	for i, e := range r.entries {
		if e.id == id {
			e.active = false
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

func (r *registry[F]) snapshot() []*entry[F] {
	out := make([]*entry[F], len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *registry[F]) len() int { return len(r.entries) }

// ─── Value ────────────────────────────────────────────────────────────────────

// ChangeFunc receives the previous and the new value of a Value.
type ChangeFunc[T any] func(old, new T)

// Value is an observable scalar. Writing a value equal to the current one is
// a no-op and notifies nobody.
type Value[T comparable] struct {
	v    T
	subs registry[ChangeFunc[T]]
}

// NewValue returns a Value holding v.
func NewValue[T comparable](v T) *Value[T] {
	return &Value[T]{v: v}
}

// Get returns the current value.
func (o *Value[T]) Get() T { return o.v }

// Set stores v and notifies every listener with (old, v).
func (o *Value[T]) Set(v T) {
	if o.v == v {
		return
	}
	old := o.v
	o.v = v
	for _, e := range o.subs.snapshot() {
		if e.active {
			e.fn(old, v)
		}
	}
}

// Subscribe registers fn and returns its handle.
func (o *Value[T]) Subscribe(fn ChangeFunc[T]) Subscription {
	return Subscription{id: o.subs.add(fn), owner: &o.subs}
}

// Listeners reports how many listeners are registered.
func (o *Value[T]) Listeners() int { return o.subs.len() }

// ─── List ─────────────────────────────────────────────────────────────────────

// Change describes one mutation of a List.
type Change[T any] struct {
	Added   []T
	Removed []T
}

// ListFunc receives every mutation of a List.
type ListFunc[T any] func(Change[T])

// List is an observable ordered collection.
type List[T any] struct {
	items []T
	subs  registry[ListFunc[T]]
}

// NewList returns a List holding a copy of items.
func NewList[T any](items ...T) *List[T] {
	l := &List[T]{}
	l.items = append(l.items, items...)
	return l
}

// Items returns a copy of the current contents.
func (l *List[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of items.
func (l *List[T]) Len() int { return len(l.items) }

// At returns item i.
func (l *List[T]) At(i int) T { return l.items[i] }

// Append adds items to the end of the list.
func (l *List[T]) Append(items ...T) {
	if len(items) == 0 {
		return
	}
	l.items = append(l.items, items...)
	l.fire(Change[T]{Added: append([]T(nil), items...)})
}

// RemoveAt removes item i.
func (l *List[T]) RemoveAt(i int) {
	removed := l.items[i]
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	l.fire(Change[T]{Removed: []T{removed}})
}

// SetAll replaces the whole content.
func (l *List[T]) SetAll(items ...T) {
	removed := l.items
	l.items = append([]T(nil), items...)
	if len(removed) == 0 && len(items) == 0 {
		return
	}
	l.fire(Change[T]{Added: l.Items(), Removed: removed})
}

// Subscribe registers fn and returns its handle.
func (l *List[T]) Subscribe(fn ListFunc[T]) Subscription {
	return Subscription{id: l.subs.add(fn), owner: &l.subs}
}

// Listeners reports how many listeners are registered.
func (l *List[T]) Listeners() int { return l.subs.len() }

func (l *List[T]) fire(c Change[T]) {
	for _, e := range l.subs.snapshot() {
		if e.active {
			e.fn(c)
		}
	}
}
