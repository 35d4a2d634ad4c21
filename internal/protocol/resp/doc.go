// Package resp implements the RESP2 subset spoken by shardkv.
//
// Requests are arrays of bulk strings:
//
//	*<N>\r\n
//	$<len>\r\n<len bytes>\r\n   (repeated N times)
//
// The decoder is incremental and zero-copy: Decode inspects a buffer that
// may hold zero, one or many complete requests followed by a partial one,
// and reports how many bytes the first complete request occupies. A partial
// request is never consumed, so the caller can retry after the next read
// from the same starting offset. Parser wraps Decode with an accumulator and
// a cursor, and recovers from malformed framing by discarding the offending
// line instead of failing the stream.
//
// Replies are produced by pure append-style encoders:
//
//	+OK\r\n            AppendSimpleString
//	-<message>\r\n     AppendError
//	:<n>\r\n           AppendInteger
//	$<len>\r\n<b>\r\n  AppendBulk
//	$-1\r\n            AppendNullBulk
//	*<n>\r\n...        AppendBulkArray
//
// ReadReply parses replies on the client side and is used by shardkv-cli and
// shardkv-benchmark.
package resp
