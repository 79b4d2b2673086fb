package types

// FileTask is one regular file discovered by the walker. Path is absolute.
type FileTask struct {
	Path string
}

// HashResult is the digest and byte count of a single file.
type HashResult struct {
	FilePath   string
	DigestHex  string
	ByteLength int64
}
