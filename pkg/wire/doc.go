// Package wire decodes loosely shaped JSON messages received from the
// real-time backend.
//
// Messages are decoded into generic objects first so that callers can look up
// the same logical value under several aliases and nesting levels:
//
//	obj, salvaged, err := wire.DecodeObject(raw)
//	if err != nil {
//		return err // no JSON object could be recovered
//	}
//	rideID, _ := wire.Lookup(obj, "rideId", "caronaId", "carona.id")
//
// DecodeObject tolerates noise around the payload by falling back to the text
// between the first '{' and the last '}'.
package wire
