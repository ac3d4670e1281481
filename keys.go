package castore

import "strconv"

type keys struct {
	prefix string // "<namespace>:<entity>:"
}

func newKeys(namespace, entity string) keys {
	return keys{prefix: namespace + ":" + entity + ":"}
}

func (k keys) data(id int64) string {
	return k.prefix + strconv.FormatInt(id, 10)
}

func (k keys) lock(id int64) string {
	return k.prefix + "LOCK:" + strconv.FormatInt(id, 10)
}

// LockKey returns the key CacheAside locks id under, so tools outside the
// process can take or inspect the same lock.
func LockKey(namespace, entity string, id int64) string {
	return newKeys(namespace, entity).lock(id)
}
