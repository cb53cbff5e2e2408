package bytecode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/tagvm/errors"
)

// FormatText renders s in the hex text form: each operand as two hex digits
// of tag code, a colon, and the payload as fixed-width hex sized by the tag.
// Every instruction after the first starts on a new line.
func FormatText(s Stream) string {
	var b strings.Builder
	for i, o := range s {
		if i > 0 {
			if o.Tag == TagOp {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(FormatOperand(o))
	}
	return b.String()
}

// FormatOperand renders one operand in the hex text form.
func FormatOperand(o Operand) string {
	digits := 2 * o.Tag.Width()
	if digits > 16 {
		return fmt.Sprintf("%02x:%s%016x", byte(o.Tag), strings.Repeat("0", digits-16), o.Payload)
	}
	return fmt.Sprintf("%02x:%0*x", byte(o.Tag), digits, o.Payload)
}

// ParseText reads the hex text form back into a stream. Unknown tag codes
// degrade to NoType; their positions are returned in the Report.
func ParseText(text string) (Stream, Report, error) {
	var report Report
	fields := strings.Fields(text)
	s := make(Stream, 0, len(fields))

	for i, field := range fields {
		tagHex, payloadHex, found := strings.Cut(field, ":")
		if !found || len(tagHex) != 2 {
			return nil, report, errors.New(errors.PhaseParse, errors.KindInvalidInput).
				Position(i).Detail("malformed operand %q", field).Build()
		}
		code, err := strconv.ParseUint(tagHex, 16, 8)
		if err != nil {
			return nil, report, errors.New(errors.PhaseParse, errors.KindInvalidInput).
				Position(i).Cause(err).Detail("bad tag code %q", tagHex).Build()
		}
		tag, ok := TagFromByte(byte(code))
		if !ok {
			report.Anomalies = append(report.Anomalies, i)
		}

		if payloadHex == "" || len(payloadHex) > 2*tag.Width() {
			return nil, report, errors.New(errors.PhaseParse, errors.KindInvalidInput).
				Position(i).Detail("payload %q does not fit %s", payloadHex, tag).Build()
		}
		// 128-bit payloads keep only their low 64 bits.
		if len(payloadHex) > 16 {
			payloadHex = payloadHex[len(payloadHex)-16:]
		}
		payload, err := strconv.ParseUint(payloadHex, 16, 64)
		if err != nil {
			return nil, report, errors.New(errors.PhaseParse, errors.KindInvalidInput).
				Position(i).Cause(err).Detail("bad payload %q", payloadHex).Build()
		}
		s = append(s, Operand{Tag: tag, Payload: payload})
	}
	return s, report, nil
}
