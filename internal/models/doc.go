// Package models defines the core domain models for Bandmates.
//
// # Models
//
//   - Band: a collaborative entity (persisted as a "business") with a public Profile
//   - Member: a User's participation in a Band, carrying a Role and a revenue Share
//   - User: a registered account with its own public Profile
//   - Device: a per-application push endpoint registered to a User
//   - Notification: a persisted message targeted at one User
//   - Performance: live activity of a Profile; while active, band membership is frozen
//   - PatronRequest: an audience user's request to become a philanthropist
//
// # Design Principles
//
// 1. **Handles are identity for humans**: bands and users are looked up by Profile.Handle
// 2. **Shares are integers**: all Members' shares of a stable Band sum to 100
// 3. **Exactly one Owner**: any Band with members has exactly one Member with RoleOwner
// 4. **IDs are strings**: UUIDs, except notifications which use a store sequence
package models
