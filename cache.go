package main

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/foxcpp/vsu_timetable/ttparser"
)

const (
	maxCacheAge     = time.Hour
	maxCacheEntries = 1000
)

type pairSource interface {
	OnDay(subgroup string, day time.Time) ([]ttparser.Pair, error)
}

type cacheKey struct {
	subgroup string
	day      time.Time
}

type cachedPairs struct {
	pairs       []ttparser.Pair
	retrievedOn time.Time
}

// Cache keeps recently requested days of subgroups.
type Cache struct {
	src pairSource

	cacheLck sync.RWMutex
	cache    map[cacheKey]cachedPairs

	cleanUpTicker *time.Ticker
	tickerStop    chan bool
}

func NewCache(src pairSource) *Cache {
	c := new(Cache)

	c.src = src
	c.cache = make(map[cacheKey]cachedPairs)
	c.cleanUpTicker = time.NewTicker(15 * time.Minute)
	c.tickerStop = make(chan bool)
	go c.cleanUpTick()
	return c
}

func (c *Cache) Close() error {
	c.tickerStop <- true
	<-c.tickerStop
	c.cleanUpTicker.Stop()
	return nil
}

func (c *Cache) cleanUpTick() {
	for {
		select {
		case <-c.cleanUpTicker.C:
			c.cleanUp()
		case <-c.tickerStop:
			c.tickerStop <- true
			return
		}
	}
}

func (c *Cache) OnDay(subgroup string, day time.Time) ([]ttparser.Pair, error) {
	key := cacheKey{subgroup, StripTime(day)}

	c.cacheLck.RLock()
	entry, prs := c.cache[key]
	c.cacheLck.RUnlock()

	if prs && entry.retrievedOn.Add(maxCacheAge).After(time.Now()) {
		return entry.pairs, nil
	}

	pairs, err := c.src.OnDay(subgroup, key.day)
	if err != nil {
		return nil, err
	}

	c.cacheLck.Lock()
	c.cache[key] = cachedPairs{pairs: pairs, retrievedOn: time.Now()}
	c.cacheLck.Unlock()
	return pairs, nil
}

func (c *Cache) cleanUp() {
	c.cacheLck.Lock()
	defer c.cacheLck.Unlock()

	totalRemoved := 0
	for k, ent := range c.cache {
		if ent.retrievedOn.Add(maxCacheAge).Before(time.Now()) {
			totalRemoved += 1
			delete(c.cache, k)
		}
	}

	for len(c.cache) > maxCacheEntries {
		oldestStamp := time.Now()
		var oldest cacheKey
		for k, ent := range c.cache {
			if ent.retrievedOn.Before(oldestStamp) {
				oldestStamp = ent.retrievedOn
				oldest = k
			}
		}
		delete(c.cache, oldest)
		totalRemoved += 1
	}
	if totalRemoved != 0 {
		log.Debugf("Removed %d stale entries from cache", totalRemoved)
	}
}

// Purge drops everything. Called after each load.
func (c *Cache) Purge() {
	c.cacheLck.Lock()
	defer c.cacheLck.Unlock()

	c.cache = make(map[cacheKey]cachedPairs)
}
