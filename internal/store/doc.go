// Package store defines the persistence contracts used by the tracking worker:
// cart and item stores, the DBTX abstraction shared by connections and
// transactions, and the RunInTransaction helper that makes multi-row writes atomic.
package store
