package rcon

import "fmt"

// The RCON wire format carries no "more data follows" flag, so a client cannot tell from a
// response packet alone whether further fragments of the same logical response are still in
// flight. The accepted workaround is a probe: immediately after the real command the client sends
// an empty command packet with the next request ID. The server processes and answers packets
// strictly in the order received, so the moment the probe's echo arrives, every fragment of the
// real response has already been delivered.

// assembleResponse reads response packets off the wire, appending every body carrying cmdID, until
// the probe echo carrying probeID arrives. The probe's own body is discarded. A response that was
// never split still follows this path; it just completes after a single fragment. An empty logical
// response is legitimate and comes back as "".
func (s *session) assembleResponse(cmdID, probeID int32) (string, error) {
	var body []byte
	for {
		resp, err := s.tr.readFrame()
		if err != nil {
			return "", err
		}
		s.logPacket("received packet", resp)

		switch resp.ID {
		case cmdID:
			body = append(body, resp.Body...)
		case probeID:
			return string(body), nil
		default:
			return "", fmt.Errorf("%w: got id %d, want %d or %d", ErrUnexpectedPacket, resp.ID, cmdID, probeID)
		}
	}
}
