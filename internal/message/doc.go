// Package message decodes raw RFC 2822 message bytes into a normalized
// record suitable for classification.
//
// The decoder is deliberately forgiving: internationalized headers that
// fail to decode fall back to their raw form, unknown charsets fall back
// to a permissive single-byte decode that never fails, and messages with
// no usable text body are normalized with a sentinel content value rather
// than rejected. Only messages that cannot be parsed at all produce a
// DecodeError.
package message
