package records

import (
	"context"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/cockroachdb/errors"
)

// Protocol names accepted by Encode and Decode.
const (
	ProtocolBinary  = "binary"
	ProtocolCompact = "compact"
)

// ErrUnknownProtocol is returned for protocol names other than binary and
// compact.
var ErrUnknownProtocol = errors.New("unknown thrift protocol")

// Protocols returns the supported protocol names.
func Protocols() []string { return []string{ProtocolBinary, ProtocolCompact} }

func newProtocol(name string, trans thrift.TTransport) (thrift.TProtocol, error) {
	conf := &thrift.TConfiguration{}
	switch name {
	case ProtocolBinary:
		return thrift.NewTBinaryProtocolConf(trans, conf), nil
	case ProtocolCompact:
		return thrift.NewTCompactProtocolConf(trans, conf), nil
	default:
		return nil, errors.Wrapf(ErrUnknownProtocol, "%q", name)
	}
}

// Encode writes msg with the named protocol into an in-memory buffer and
// returns the bytes.
func Encode(ctx context.Context, msg thrift.TStruct, protocol string) ([]byte, error) {
	buf := thrift.NewTMemoryBuffer()
	prot, err := newProtocol(protocol, buf)
	if err != nil {
		return nil, err
	}
	if err := msg.Write(ctx, prot); err != nil {
		return nil, errors.Wrapf(err, "encoding %T", msg)
	}
	if err := prot.Flush(ctx); err != nil {
		return nil, errors.Wrap(err, "flushing protocol")
	}
	return buf.Bytes(), nil
}

// Decode reads msg from data using the named protocol.
func Decode(ctx context.Context, data []byte, msg thrift.TStruct, protocol string) error {
	buf := thrift.NewTMemoryBufferLen(len(data))
	if _, err := buf.Write(data); err != nil {
		return errors.Wrap(err, "filling buffer")
	}
	prot, err := newProtocol(protocol, buf)
	if err != nil {
		return err
	}
	return errors.Wrapf(msg.Read(ctx, prot), "decoding %T", msg)
}

// EncodePeople encodes people as a single People struct.
func EncodePeople(ctx context.Context, people []Person, protocol string) ([]byte, error) {
	return Encode(ctx, &People{People: people}, protocol)
}

// DecodePeople decodes a People struct.
func DecodePeople(ctx context.Context, data []byte, protocol string) ([]Person, error) {
	var msg People
	if err := Decode(ctx, data, &msg, protocol); err != nil {
		return nil, err
	}
	return msg.People, nil
}
