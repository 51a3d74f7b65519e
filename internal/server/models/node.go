package models

import (
	"path"
	"strings"
	"time"
)

const (
	// FolderType marks a node that only exists to group other nodes.
	FolderType = "dir"
	// RootPath is the parent path of every top-level node.
	RootPath = "/home/"
)

// Node is one entry of a user's virtual filesystem. A node's full path is
// ParentPath+ChildPath; the children of a folder carry
// ParentPath == FolderPath(folder).
type Node struct {
	ID         int64
	UserID     int64
	ChildPath  string
	ParentPath string
	Type       string
	// StorageKey locates the bytes in the blob store. Empty for folders.
	StorageKey string
	FileName   string
	Size       int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

func (n *Node) IsFolder() bool {
	return n.Type == FolderType
}

func (n *Node) IsDeleted() bool {
	return n.DeletedAt != nil
}

// NormalizePath trims slashes on both ends and wraps the result as "/<p>/".
// Empty input maps to RootPath.
func NormalizePath(p string) string {
	v := strings.Trim(p, "/")
	if v == "" {
		return RootPath
	}
	return "/" + v + "/"
}

// FolderPath is the parent path shared by the direct children of folder.
func FolderPath(folder *Node) string {
	return NormalizePath(folder.ParentPath + folder.ChildPath)
}

// FileType derives a node type from a display name: the lowercase extension
// including the leading dot, or "" when there is none.
func FileType(name string) string {
	return strings.ToLower(path.Ext(name))
}
