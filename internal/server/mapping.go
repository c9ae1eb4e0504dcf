package server

import (
	"time"

	"github.com/google/uuid"

	"tomgalvin.uk/thermalprint/internal/journal"
	"tomgalvin.uk/thermalprint/internal/printer"
)

type TextRequest struct {
	Text      string `json:"text"`
	Justify   string `json:"justify"`
	Size      string `json:"size"`
	Font      string `json:"font"`
	Bold      bool   `json:"bold"`
	Underline int    `json:"underline"`
	Inverse   bool   `json:"inverse"`
	Strike    bool   `json:"strike"`
	Upside    bool   `json:"upsideDown"`
	CodePage  *int   `json:"codePage"`
	Feed      uint8  `json:"feed"`
}

type FeedRequest struct {
	Lines uint8 `json:"lines"`
	Rows  uint8 `json:"rows"`
}

// BitmapRequest is a page of pixels, one byte per pixel in rows, 1 for black.
// Data is base64 encoded in JSON.
type BitmapRequest struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   []byte `json:"data"`
}

type LabelRequest struct {
	Text string  `json:"text"`
	Font string  `json:"font"`
	Size float64 `json:"size"`
}

type JobResponse struct {
	Uuid        string    `json:"uuid,omitempty"`
	Kind        string    `json:"kind"`
	Summary     string    `json:"summary,omitempty"`
	Bytes       int64     `json:"bytes"`
	EstimatedMs int64     `json:"estimatedMs"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type MetricsResponse struct {
	CharHeight int `json:"charHeight"`
	CharWidth  int `json:"charWidth"`
	MaxColumn  int `json:"maxColumn"`
}

type StatusResponse struct {
	Firmware      uint16          `json:"firmware"`
	Capabilities  string          `json:"capabilities"`
	Mode          string          `json:"mode"`
	Metrics       MetricsResponse `json:"metrics"`
	Column        int             `json:"column"`
	LineSpacing   int             `json:"lineSpacing"`
	BarcodeHeight int             `json:"barcodeHeight"`
	CodePage      int             `json:"codePage"`
	BusyMs        int64           `json:"busyMs"`
	QueuedChunks  int             `json:"queuedChunks"`
	QueuedBytes   int             `json:"queuedBytes"`
	BytesWritten  int64           `json:"bytesWritten"`
	Err           string          `json:"error,omitempty"`
	JobsRecorded  *int            `json:"jobsRecorded,omitempty"`
}

func mapJobToJson(j *journal.Job) JobResponse {
	r := JobResponse{
		Kind:        j.Kind,
		Summary:     j.Summary,
		Bytes:       j.Bytes,
		EstimatedMs: j.Estimated.Milliseconds(),
		Status:      string(j.Status),
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
	}
	if j.Uuid != uuid.Nil {
		r.Uuid = j.Uuid.String()
	}
	return r
}

func mapStatusToJson(s *printer.Status) StatusResponse {
	return StatusResponse{
		Firmware:     s.Firmware,
		Capabilities: s.Capabilities,
		Mode:         s.Mode,
		Metrics: MetricsResponse{
			CharHeight: s.Metrics.CharHeight,
			CharWidth:  s.Metrics.CharWidth,
			MaxColumn:  s.Metrics.MaxColumn,
		},
		Column:        s.Column,
		LineSpacing:   s.LineSpacing,
		BarcodeHeight: s.BarcodeHeight,
		CodePage:      s.CodePage,
		BusyMs:        s.BusyFor.Milliseconds(),
		QueuedChunks:  s.QueuedChunks,
		QueuedBytes:   s.QueuedBytes,
		BytesWritten:  s.BytesWritten,
		Err:           s.Err,
	}
}

// apply sets up the print mode a text request asks for.
func (r *TextRequest) apply(p *printer.Printer) {
	p.Justify(printer.ParseJustify(r.Justify))
	if r.Size != "" {
		p.SetSize(r.Size[0])
	}
	if r.Font != "" {
		p.SetFont(r.Font[0])
	}
	if r.Bold {
		p.BoldOn()
	}
	if r.Strike {
		p.StrikeOn()
	}
	if r.Inverse {
		p.InverseOn()
	}
	if r.Upside {
		p.UpsideDownOn()
	}
	if r.Underline > 0 {
		p.UnderlineOn(r.Underline)
	}
	if r.CodePage != nil {
		p.SetCodePage(*r.CodePage)
	}
}

// restore puts the printer back to its default style after a text request.
func (r *TextRequest) restore(p *printer.Printer) {
	if r.Upside {
		p.UpsideDownOff()
	}
	if r.Strike || r.Font != "" {
		p.ClearMode(printer.Strike | printer.FontB)
	}
	p.SetDefault()
}
