// Copyright © 2018 One Concern

package manifest

import (
	iradix "github.com/hashicorp/go-immutable-radix"
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/assetsync/pkg/bundle"
	"github.com/oneconcern/assetsync/pkg/status"
)

// ContentsTable is an immutable index of asset paths to the bundle which holds them.
//
// Asset paths are case-normalized. The table is safe for concurrent readers.
type ContentsTable struct {
	tree *iradix.Tree
}

// NewContentsTable builds a contents table from asset path -> bundle identifier pairs
func NewContentsTable(pairs map[string]string) *ContentsTable {
	txn := iradix.New().Txn()
	for assetPath, id := range pairs {
		txn.Insert([]byte(bundle.NormalizePath(assetPath)), id)
	}
	return &ContentsTable{tree: txn.Commit()}
}

// BundleOf resolves the bundle holding some asset.
//
// An asset which is not listed is reported as status.ErrNotFound.
func (c *ContentsTable) BundleOf(assetPath string) (string, error) {
	key := bundle.NormalizePath(assetPath)
	if c != nil && c.tree != nil {
		if v, ok := c.tree.Get([]byte(key)); ok {
			return v.(string), nil
		}
	}
	return "", status.ErrNotFound.WrapMessage("asset %q is not part of this package", key)
}

// Len is the number of assets indexed
func (c *ContentsTable) Len() int {
	if c == nil || c.tree == nil {
		return 0
	}
	return c.tree.Len()
}

// Assets lists indexed asset paths starting with some prefix, in lexicographic order
func (c *ContentsTable) Assets(prefix string) []string {
	if c == nil || c.tree == nil {
		return nil
	}
	var res []string
	c.tree.Root().WalkPrefix([]byte(bundle.NormalizePath(prefix)), func(k []byte, _ interface{}) bool {
		res = append(res, string(k))
		return false
	})
	return res
}

// Pairs returns a copy of the table as asset path -> bundle identifier
func (c *ContentsTable) Pairs() map[string]string {
	res := make(map[string]string, c.Len())
	if c == nil || c.tree == nil {
		return res
	}
	c.tree.Root().Walk(func(k []byte, v interface{}) bool {
		res[string(k)] = v.(string)
		return false
	})
	return res
}

// Encode the table as a JSON object {assetPath: bundleId}
func (c *ContentsTable) Encode() ([]byte, error) {
	return json.Marshal(c.Pairs())
}

type legacyPair struct {
	Item1 string `json:"Item1"`
	Item2 string `json:"Item2"`
}

// DecodeContentsTable decodes a contents table.
//
// Besides the JSON object form, it accepts the legacy list of pairs, with pairs being
// either 2-strings arrays or {"Item1": assetPath, "Item2": bundleId} objects.
func DecodeContentsTable(data []byte) (*ContentsTable, error) {
	var pairs map[string]string
	if err := json.Unmarshal(data, &pairs); err == nil {
		return NewContentsTable(pairs), nil
	}

	var list []jsoniter.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, status.ErrDecode.WrapMessage("contents table").Wrap(err)
	}
	pairs = make(map[string]string, len(list))
	for i, raw := range list {
		assetPath, id, err := decodePair(raw)
		if err != nil {
			return nil, status.ErrDecode.WrapMessage("contents table entry %d", i).Wrap(err)
		}
		pairs[assetPath] = id
	}
	return NewContentsTable(pairs), nil
}

func decodePair(raw jsoniter.RawMessage) (string, string, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) != 2 {
			return "", "", status.ErrDecode.WrapMessage("expected a pair, got %d items", len(arr))
		}
		return arr[0], arr[1], nil
	}
	var obj legacyPair
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", "", err
	}
	if obj.Item1 == "" || obj.Item2 == "" {
		return "", "", status.ErrDecode.WrapMessage("incomplete pair")
	}
	return obj.Item1, obj.Item2, nil
}
