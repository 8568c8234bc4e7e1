package waveform

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/inctrl-project/inctrl-go/pkg/duration"
)

// fileRecord is the on-disk shape of a waveform. Integer keys keep the
// header small next to the sample payload.
type fileRecord struct {
	Name         string    `cbor:"1,keyasint"`
	DxSeconds    float64   `cbor:"2,keyasint"`
	TriggerIndex int       `cbor:"3,keyasint"`
	Ys           []float64 `cbor:"4,keyasint"`
	CapturedAt   time.Time `cbor:"5,keyasint,omitempty"`
}

var (
	fileEncMode cbor.EncMode
	fileDecMode cbor.DecMode
)

func init() {
	encOpts := cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}
	em, err := encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("waveform: invalid CBOR encode options: %v", err))
	}
	fileEncMode = em

	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("waveform: invalid CBOR decode options: %v", err))
	}
	fileDecMode = dm
}

// Encode writes the waveform to w in its CBOR file format.
func (wf *Waveform) Encode(w io.Writer) error {
	rec := fileRecord{
		Name:         wf.name,
		DxSeconds:    wf.dxSeconds,
		TriggerIndex: wf.triggerIndex,
		Ys:           wf.ys,
		CapturedAt:   wf.capturedAt,
	}
	data, err := fileEncMode.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding waveform: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing waveform: %w", err)
	}
	return nil
}

// Decode reads a waveform previously written with Encode.
func Decode(r io.Reader) (*Waveform, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading waveform: %w", err)
	}
	var rec fileRecord
	if err := fileDecMode.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding waveform: %w", err)
	}
	wf := New(rec.Name, rec.DxSeconds, rec.TriggerIndex, rec.Ys)
	wf.capturedAt = rec.CapturedAt
	return wf, nil
}

// Save writes the waveform to path, replacing any existing file.
func (wf *Waveform) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating waveform file: %w", err)
	}
	if err := wf.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing waveform file: %w", err)
	}
	return nil
}

// Load reads a waveform file written with Save.
func Load(path string) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening waveform file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// ExportCSV writes the waveform as two columns, time in the given unit
// and the sample value, with a header row.
func (wf *Waveform) ExportCSV(w io.Writer, unit duration.TimeUnit) error {
	cw := csv.NewWriter(w)
	header := []string{fmt.Sprintf("time_%s", unit), wf.name}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	scale := 1 / unit.Seconds()
	row := make([]string, 2)
	for i, y := range wf.ys {
		row[0] = strconv.FormatFloat(wf.xAt(i)*scale, 'g', -1, 64)
		row[1] = strconv.FormatFloat(y, 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// WriteCSVFile exports the waveform as CSV to path.
func (wf *Waveform) WriteCSVFile(path string, unit duration.TimeUnit) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}
	if err := wf.ExportCSV(f, unit); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing CSV file: %w", err)
	}
	return nil
}
