/*
Package bridge carries messages between the editor and the execution host.

Reducers post outbound messages to a PostOffice, which holds them until the
dispatch that produced them has committed and then hands them to every
registered sink and subscriber. Inbound messages are turned into actions by
Decode.
*/
package bridge
