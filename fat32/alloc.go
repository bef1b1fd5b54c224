package fat32

// allocateChain implements spec.md §4.2.2 "Cluster allocation": starting
// from nextFree, scan the FAT linearly for n free entries, link them into
// a chain, mark the last as EOC, and update the free_count/next_free
// hints. Grounded in the teacher's create_chain call from f_write,
// generalized off the embedded BlockDevice window onto fs.fatEntry.
func (fs *FS) allocateChain(n uint32) (first uint32, err error) {
	if n == 0 {
		return 0, nil
	}
	if fs.freeCount != 0xFFFFFFFF && fs.freeCount < n {
		return 0, &OutOfSpace{Requested: n, Available: fs.freeCount}
	}

	hint := fs.nextFree
	if hint < clusterFirst || hint > fs.maxCluster() {
		hint = clusterFirst
	}

	cur := hint
	scanned := uint32(0)
	maxScan := fs.totalClusters + 1

	var prev uint32
	allocated := uint32(0)
	for allocated < n {
		e, err := fs.fatEntry(cur)
		if err != nil {
			return 0, err
		}
		if isFree(e) {
			if allocated == 0 {
				first = cur
			} else {
				if err := fs.setFATEntry(prev, cur); err != nil {
					return 0, err
				}
			}
			if err := fs.setFATEntry(cur, fatEOC); err != nil {
				return 0, err
			}
			prev = cur
			allocated++
		}
		cur++
		if cur > fs.maxCluster() {
			cur = clusterFirst
		}
		scanned++
		if scanned > maxScan {
			return 0, &OutOfSpace{Requested: n, Available: allocated}
		}
	}

	if fs.freeCount != 0xFFFFFFFF {
		fs.freeCount -= allocated
	}
	fs.nextFree = fs.findFreeAfter(cur)
	fs.fsiDirty = true
	return first, nil
}

func (fs *FS) maxCluster() uint32 { return fs.totalClusters + clusterFirst - 1 }

// findFreeAfter scans forward from c (wrapping once) for a free cluster,
// used to refresh next_free after an allocation. Returns c unchanged if no
// free cluster is found within one full pass — a subsequent allocation
// will simply rediscover OutOfSpace.
func (fs *FS) findFreeAfter(c uint32) uint32 {
	cur := c
	for i := uint32(0); i < fs.totalClusters; i++ {
		cur++
		if cur > fs.maxCluster() {
			cur = clusterFirst
		}
		e, err := fs.fatEntry(cur)
		if err == nil && isFree(e) {
			return cur
		}
	}
	return c
}

// chainLength walks the chain starting at head and returns the number of
// clusters in it. head==0 (unallocated) has length 0.
func (fs *FS) chainLength(head uint32) (uint32, error) {
	if head == 0 {
		return 0, nil
	}
	n := uint32(0)
	c := head
	for {
		if c < clusterFirst || c > fs.maxCluster() {
			return 0, &BadCluster{Cluster: c}
		}
		n++
		e, err := fs.fatEntry(c)
		if err != nil {
			return 0, err
		}
		if isEOC(e) {
			return n, nil
		}
		if isBad(e) || isFree(e) {
			return 0, &BadCluster{Cluster: c}
		}
		c = e & fatEntryMask
		if n > fs.totalClusters+1 {
			return 0, &BadCluster{Cluster: c}
		}
	}
}

// clusterAt returns the cluster number holding logical cluster index idx
// (0-based) within the chain starting at head.
func (fs *FS) clusterAt(head uint32, idx uint32) (uint32, error) {
	c := head
	for i := uint32(0); i < idx; i++ {
		e, err := fs.fatEntry(c)
		if err != nil {
			return 0, err
		}
		if isEOC(e) {
			return 0, &BadCluster{Cluster: c}
		}
		c = e & fatEntryMask
	}
	return c, nil
}

// retainClusterChain implements spec.md §4.2.2 "Extending a chain":
// extend head to desiredLen clusters by appending newly allocated
// clusters, or truncate it by re-marking the new tail as EOC and freeing
// the remainder.
func (fs *FS) retainClusterChain(head uint32, desiredLen uint32) (uint32, error) {
	if head == 0 {
		if desiredLen == 0 {
			return 0, nil
		}
		return fs.allocateChain(desiredLen)
	}
	if desiredLen == 0 {
		if err := fs.freeChain(head); err != nil {
			return 0, err
		}
		return 0, nil
	}

	curLen, err := fs.chainLength(head)
	if err != nil {
		return 0, err
	}
	if curLen == desiredLen {
		return head, nil
	}
	if curLen < desiredLen {
		tail, err := fs.clusterAt(head, curLen-1)
		if err != nil {
			return 0, err
		}
		deficit := desiredLen - curLen
		newHead, err := fs.allocateChain(deficit)
		if err != nil {
			return 0, err
		}
		if err := fs.setFATEntry(tail, newHead); err != nil {
			return 0, err
		}
		return head, nil
	}

	// Truncate: find new tail, mark EOC, free the rest.
	newTail, err := fs.clusterAt(head, desiredLen-1)
	if err != nil {
		return 0, err
	}
	toFree, err := fs.fatEntry(newTail)
	if err != nil {
		return 0, err
	}
	if err := fs.setFATEntry(newTail, fatEOC); err != nil {
		return 0, err
	}
	if !isEOC(toFree) {
		if err := fs.freeChain(toFree & fatEntryMask); err != nil {
			return 0, err
		}
	}
	return head, nil
}

// freeChain walks a chain marking every cluster free, updating
// free_count/next_free as it goes (spec.md §4.2.2).
func (fs *FS) freeChain(head uint32) error {
	c := head
	for c >= clusterFirst && c <= fs.maxCluster() {
		e, err := fs.fatEntry(c)
		if err != nil {
			return err
		}
		if err := fs.setFATEntry(c, fatFree); err != nil {
			return err
		}
		if fs.freeCount != 0xFFFFFFFF {
			fs.freeCount++
		}
		if fs.nextFree == 0xFFFFFFFF || c < fs.nextFree {
			fs.nextFree = c
		}
		fs.fsiDirty = true
		if isEOC(e) {
			break
		}
		c = e & fatEntryMask
	}
	return nil
}
