package index

import "DirectoryHasher/internal/types"

type RunInfo struct {
	Algorithm  types.Algorithm
	Total      int64
	TotalBytes int64
}

type FileItem struct {
	Path   string
	Length int64
	Hash   string
}
