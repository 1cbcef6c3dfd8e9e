package records

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// MaxMessageSize is the maximum allowed frame size (50MB).
const MaxMessageSize = 50 * 1024 * 1024

// ErrMessageTooLarge is returned when a frame exceeds MaxMessageSize.
var ErrMessageTooLarge = errors.New("message size exceeds maximum allowed size")

// ReadMessage reads a length-prefixed frame from the reader.
// Format: [4 bytes length (BigEndian)] [N bytes payload]
func ReadMessage(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}

	if length > MaxMessageSize {
		return nil, errors.Wrapf(ErrMessageTooLarge, "%d bytes (max: %d)", length, MaxMessageSize)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "failed to read message body")
	}

	return buf, nil
}

// WriteMessage writes a length-prefixed frame to the writer.
// Format: [4 bytes length (BigEndian)] [N bytes payload]
func WriteMessage(w io.Writer, data []byte) error {
	if len(data) > MaxMessageSize {
		return errors.Wrapf(ErrMessageTooLarge, "%d bytes (max: %d)", len(data), MaxMessageSize)
	}

	length := uint32(len(data)) // #nosec G115 - bounds checked above
	if err := binary.Write(w, binary.BigEndian, length); err != nil {
		return errors.Wrap(err, "failed to write message length")
	}

	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write message body")
	}

	return nil
}

// WriteFramed writes each person as its own Thrift message, one frame per
// record.
func WriteFramed(ctx context.Context, path string, people []Person, protocol string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	w := bufio.NewWriter(f)

	for i := range people {
		if err := ctx.Err(); err != nil {
			f.Close()
			return err
		}
		data, err := Encode(ctx, &people[i], protocol)
		if err != nil {
			f.Close()
			return err
		}
		if err := WriteMessage(w, data); err != nil {
			f.Close()
			return errors.Wrapf(err, "record %d", i)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "flushing %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}

// ReadFramed reads every frame of path written by WriteFramed.
func ReadFramed(ctx context.Context, path string, protocol string) ([]Person, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	return readFrames(ctx, bufio.NewReader(f), protocol)
}

func readFrames(ctx context.Context, r io.Reader, protocol string) ([]Person, error) {
	var people []Person
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := ReadMessage(r)
		if err == io.EOF {
			return people, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", len(people))
		}
		var p Person
		if err := Decode(ctx, data, &p, protocol); err != nil {
			return nil, errors.Wrapf(err, "frame %d", len(people))
		}
		people = append(people, p)
	}
}
