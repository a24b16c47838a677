package main

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/foxcpp/vsu_timetable/ttparser"
)

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) OnDay(subgroup string, d time.Time) ([]ttparser.Pair, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []ttparser.Pair{pair(d, 1, subgroup, "Алгебра")}, nil
}

func TestCache_OnDay(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src)
	defer c.Close()

	mon := day(2024, 1, 15)
	for i := 0; i < 3; i++ {
		pairs, err := c.OnDay("11а", mon.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("OnDay: %v", err)
		}
		if len(pairs) != 1 || pairs[0].Subgroup != "11а" {
			t.Fatalf("unexpected pairs %+v", pairs)
		}
	}
	if src.calls != 1 {
		t.Errorf("expected one source lookup, got %d", src.calls)
	}

	if _, err := c.OnDay("11б", mon); err != nil {
		t.Fatalf("OnDay: %v", err)
	}
	if src.calls != 2 {
		t.Errorf("other subgroup must be looked up, got %d calls", src.calls)
	}

	c.Purge()
	if _, err := c.OnDay("11а", mon); err != nil {
		t.Fatalf("OnDay: %v", err)
	}
	if src.calls != 3 {
		t.Errorf("purged entry must be looked up again, got %d calls", src.calls)
	}
}

func TestCache_Expired(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src)
	defer c.Close()

	mon := day(2024, 1, 15)
	if _, err := c.OnDay("11а", mon); err != nil {
		t.Fatalf("OnDay: %v", err)
	}

	key := cacheKey{"11а", mon}
	c.cacheLck.Lock()
	entry := c.cache[key]
	entry.retrievedOn = time.Now().Add(-2 * maxCacheAge)
	c.cache[key] = entry
	c.cacheLck.Unlock()

	c.cleanUp()
	if len(c.cache) != 0 {
		t.Errorf("stale entry was not removed")
	}
}

func TestCache_ErrorNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("db down")}
	c := NewCache(src)
	defer c.Close()

	for i := 0; i < 2; i++ {
		if _, err := c.OnDay("11а", day(2024, 1, 15)); err == nil {
			t.Fatal("expected an error")
		}
	}
	if src.calls != 2 {
		t.Errorf("errors must not be cached, got %d calls", src.calls)
	}
}

func TestCache_CleanUpSizeCap(t *testing.T) {
	c := NewCache(&countingSource{})
	defer c.Close()

	now := time.Now()
	mon := day(2024, 1, 15)
	c.cacheLck.Lock()
	// Index 0 is the oldest fresh entry, index maxCacheEntries+1 the newest.
	for i := 0; i < maxCacheEntries+2; i++ {
		key := cacheKey{"11а", mon.AddDate(0, 0, i)}
		c.cache[key] = cachedPairs{retrievedOn: now.Add(-time.Second * time.Duration(maxCacheEntries+2-i))}
	}
	stale := cacheKey{"11б", mon}
	c.cache[stale] = cachedPairs{retrievedOn: now.Add(-2 * maxCacheAge)}
	c.cacheLck.Unlock()

	c.cleanUp()

	if len(c.cache) != maxCacheEntries {
		t.Fatalf("expected %d entries, got %d", maxCacheEntries, len(c.cache))
	}
	if _, ok := c.cache[stale]; ok {
		t.Error("stale entry survived")
	}
	for i := 0; i < 2; i++ {
		if _, ok := c.cache[cacheKey{"11а", mon.AddDate(0, 0, i)}]; ok {
			t.Errorf("entry %d is among the oldest and must be evicted", i)
		}
	}
	if _, ok := c.cache[cacheKey{"11а", mon.AddDate(0, 0, maxCacheEntries+1)}]; !ok {
		t.Error("newest entry was evicted")
	}
}
