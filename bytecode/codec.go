package bytecode

import (
	stderrors "errors"

	"github.com/wippyai/tagvm/bytecode/internal/binary"
	"github.com/wippyai/tagvm/errors"
)

// Report collects the non-fatal anomalies seen while decoding.
type Report struct {
	// Anomalies lists operand positions whose tag byte was not recognized
	// and degraded to NoType.
	Anomalies []int
}

// Decode reads the canonical binary form: per operand one tag byte followed
// by a little-endian payload of the tag's width. Opcodes are not validated.
func Decode(raw []byte) (Stream, error) {
	s, _, err := DecodeWithReport(raw)
	return s, err
}

// DecodeWithReport is Decode that also returns the decode anomalies.
func DecodeWithReport(raw []byte) (Stream, Report, error) {
	return decode(raw, func(tag Tag) int { return tag.Width() })
}

// DecodeCompact reads the compact form, where every payload is one byte.
func DecodeCompact(raw []byte) (Stream, Report, error) {
	return decode(raw, func(Tag) int { return 1 })
}

func decode(raw []byte, width func(Tag) int) (Stream, Report, error) {
	var report Report
	r := binary.FromBytes(raw)
	s := make(Stream, 0, len(raw)/2)

	for r.Position() < len(raw) {
		start := r.Position()
		b, err := r.ReadByte()
		if err != nil {
			return nil, report, errors.Wrap(errors.PhaseDecode, errors.KindTruncated, r.WrapError(err), "read tag")
		}
		tag, ok := TagFromByte(b)
		if !ok {
			report.Anomalies = append(report.Anomalies, len(s))
		}
		payload, err := r.ReadUintLE(width(tag))
		if err != nil {
			if stderrors.Is(err, binary.ErrShortPayload) {
				return nil, report, errors.Truncated(errors.PhaseDecode, start, "payload of "+tag.String()+" operand ends early")
			}
			return nil, report, errors.Wrap(errors.PhaseDecode, errors.KindInvalidInput, r.WrapError(err), "read payload")
		}
		s = append(s, Operand{Tag: tag, Payload: payload})
	}
	return s, report, nil
}

// Encode writes the canonical binary form of s.
func Encode(s Stream) []byte {
	w := binary.NewWriter()
	for _, o := range s {
		w.Byte(byte(o.Tag))
		w.WriteUintLE(o.Payload, o.Tag.Width())
	}
	return w.Bytes()
}

// EncodeCompact writes the compact form. Payloads wider than a byte are
// truncated to their low byte.
func EncodeCompact(s Stream) []byte {
	w := binary.NewWriter()
	for _, o := range s {
		w.Byte(byte(o.Tag))
		w.Byte(byte(o.Payload))
	}
	return w.Bytes()
}
