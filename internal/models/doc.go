// package models defines the data model for the streaming gateway.
//
// All types are plain value objects: tracks are copied by value between the
// cache tiers and the per-user store, and a UserRecord is the full persisted
// state for one authenticated identity.
package models
