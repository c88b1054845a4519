package changeset

import "strings"

// Bucket is the partition a file path falls into.
type Bucket int

const (
	BucketCode Bucket = iota
	BucketTest
)

func (b Bucket) String() string {
	switch b {
	case BucketTest:
		return "test"
	default:
		return "code"
	}
}

// Classify puts a path in the test bucket when the substring "test" occurs
// anywhere in it (case-sensitive), and in the code bucket otherwise.
func Classify(path string) Bucket {
	if strings.Contains(path, "test") {
		return BucketTest
	}
	return BucketCode
}

// Classifier partitions change-sets into code and test buckets.
type Classifier struct {
	// Prefix, when non-empty, drops every path that does not start with it.
	Prefix string
	// Predicate overrides Classify when set.
	Predicate func(path string) Bucket
}

// Accepts reports whether path passes the prefix filter.
func (c Classifier) Accepts(path string) bool {
	return c.Prefix == "" || strings.HasPrefix(path, c.Prefix)
}

// Bucket returns the bucket for path.
func (c Classifier) Bucket(path string) Bucket {
	if c.Predicate != nil {
		return c.Predicate(path)
	}
	return Classify(path)
}

// Partition splits cs into code and test change-sets. Line sets are carried
// over untouched; empty entries and paths rejected by the prefix filter are
// dropped. The two results never share a key.
func (c Classifier) Partition(cs ChangeSet) (code, test ChangeSet) {
	code, test = ChangeSet{}, ChangeSet{}
	for path, ls := range cs {
		if ls.IsEmpty() || !c.Accepts(path) {
			continue
		}
		if c.Bucket(path) == BucketTest {
			test[path] = ls
		} else {
			code[path] = ls
		}
	}
	return code, test
}
