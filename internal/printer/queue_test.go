package printer

import (
	"bytes"
	"math/rand/v2"
	"testing"
)

func TestQueueChunking(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 1))
	for range 50 {
		chunkSize := 1 + r.IntN(200)
		data := make([]byte, r.IntN(2000))
		for i := range data {
			data[i] = byte(r.IntN(256))
		}

		q := NewQueue(chunkSize)
		q.Enqueue(data)

		expectedChunks := (len(data) + chunkSize - 1) / chunkSize
		if q.Len() != expectedChunks {
			t.Fatalf("%d bytes in chunks of %d: expected %d chunks, got %d", len(data), chunkSize, expectedChunks, q.Len())
		}
		if q.Pending() != len(data) {
			t.Fatalf("Expected %d pending bytes, got %d", len(data), q.Pending())
		}

		var out []byte
		for {
			chunk, ok := q.Pop()
			if !ok {
				break
			}
			if len(chunk) > chunkSize || len(chunk) == 0 {
				t.Fatalf("Bad chunk length %d", len(chunk))
			}
			out = append(out, chunk...)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("Chunks don't reassemble the data")
		}
	}
}

func TestQueueKeepsOrderAcrossEnqueues(t *testing.T) {
	q := NewQueue(4)
	q.Enqueue([]byte("abcdef"))
	q.Enqueue([]byte("gh"))

	var got [][]byte
	for chunk, ok := q.Pop(); ok; chunk, ok = q.Pop() {
		got = append(got, chunk)
	}
	expected := [][]byte{[]byte("abcd"), []byte("ef"), []byte("gh")}
	if len(got) != len(expected) {
		t.Fatalf("Expected %d chunks, got %d", len(expected), len(got))
	}
	for i := range expected {
		assertBytes(t, expected[i], got[i])
	}
}

func TestQueueCopiesData(t *testing.T) {
	q := NewQueue(0)
	data := []byte{1, 2, 3}
	q.Enqueue(data)
	data[0] = 9

	chunk, _ := q.Pop()
	if chunk[0] != 1 {
		t.Errorf("Queue shares memory with the caller")
	}
	if q.ChunkSize() != DefaultChunkSize {
		t.Errorf("Expected the default chunk size, got %d", q.ChunkSize())
	}
}
