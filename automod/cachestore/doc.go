// Component for caching arbitrary data (as JSON strings) with a fixed TTL and purging.
//
// Includes an interface and implementations using redis and in-process memory.
//
// The bot uses this to cache upstream price quotes, so that bursts of identical `.live` commands in busy groups result in a single API call.
package cachestore
