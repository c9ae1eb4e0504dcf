package printer

// Default number of bytes sent per scheduler tick.
const DefaultChunkSize = 120

// Queue holds bulk data waiting to go out, split into fixed size chunks so a
// large raster image doesn't monopolise the link in a single write.
type Queue struct {
	chunkSize int
	chunks    [][]byte
	pending   int
}

func NewQueue(chunkSize int) *Queue {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Queue{chunkSize: chunkSize}
}

// Enqueue copies data into chunks at the tail of the queue. The last chunk
// may be short.
func (q *Queue) Enqueue(data []byte) {
	for start := 0; start < len(data); start += q.chunkSize {
		end := min(start+q.chunkSize, len(data))
		chunk := make([]byte, end-start)
		copy(chunk, data[start:end])
		q.chunks = append(q.chunks, chunk)
		q.pending += len(chunk)
	}
}

// Pop removes the oldest chunk.
func (q *Queue) Pop() ([]byte, bool) {
	if len(q.chunks) == 0 {
		return nil, false
	}
	chunk := q.chunks[0]
	q.chunks[0] = nil
	q.chunks = q.chunks[1:]
	q.pending -= len(chunk)
	return chunk, true
}

// Len is the number of chunks waiting.
func (q *Queue) Len() int {
	return len(q.chunks)
}

// Pending is the number of bytes waiting.
func (q *Queue) Pending() int {
	return q.pending
}

func (q *Queue) ChunkSize() int {
	return q.chunkSize
}
