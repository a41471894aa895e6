package client

// Batch accumulates calls and notifications to be sent as one payload.
//
//	batch := client.NewBatch().
//		Call("user/get", map[string]int{"id": 1}).
//		Call("user/get", map[string]int{"id": 2}).
//		Notify("audit/log", map[string]string{"event": "lookup"})
//	resps, err := c.CallBatch(ctx, batch)
type Batch struct {
	calls []batchCall
}

type batchCall struct {
	method string
	params any
	notify bool
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Call adds a request to the batch.
func (b *Batch) Call(method string, params any) *Batch {
	b.calls = append(b.calls, batchCall{method: method, params: params})
	return b
}

// Notify adds a notification to the batch.
func (b *Batch) Notify(method string, params any) *Batch {
	b.calls = append(b.calls, batchCall{method: method, params: params, notify: true})
	return b
}

// Len returns the number of entries in the batch.
func (b *Batch) Len() int {
	return len(b.calls)
}
