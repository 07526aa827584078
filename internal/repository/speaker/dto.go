package speaker

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
)

// record is the msgpack-encoded form of one speaker. UpdatedAt 0 means never updated;
// Seq 0 marks a record written before registration sequencing.
type record struct {
	ID             string      `msgpack:"id"`
	Name           string      `msgpack:"name"`
	Embeddings     [][]float32 `msgpack:"embeddings"`
	QualityPercent float64     `msgpack:"quality_percent"`
	RegisteredAt   int64       `msgpack:"registered_at"`
	UpdatedAt      int64       `msgpack:"updated_at"`
	Seq            int64       `msgpack:"seq"`
}

func encode(s domspk.Speaker) ([]byte, error) {
	data, err := msgpack.Marshal(record{
		ID:             s.ID(),
		Name:           s.Name(),
		Embeddings:     s.Samples(),
		QualityPercent: s.QualityPercent(),
		RegisteredAt:   s.RegisteredAt(),
		UpdatedAt:      s.UpdatedAt(),
		Seq:            s.Seq(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speaker %s: %w", s.Name(), err)
	}
	return data, nil
}

func decode(data []byte) (domspk.Speaker, error) {
	var r record
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return domspk.Speaker{}, fmt.Errorf("unmarshal speaker: %w", err)
	}
	if r.Name == "" || len(r.Embeddings) == 0 {
		return domspk.Speaker{}, fmt.Errorf("corrupt speaker record %q: missing name or embeddings", r.ID)
	}
	return domspk.Reconstruct(r.ID, r.Name, r.Embeddings, r.QualityPercent, r.RegisteredAt, r.UpdatedAt).
		WithSeq(r.Seq), nil
}
