/*
Package session orchestrates access to stored documents.

A Manager serializes operations on the same document id within a process
and, when given a ports.DistributedLocker, across replicas. Any
ports.StateStore can back it.
*/
package session
