/*
Package keys implements secp256k1 keys used to sign transactions and to derive
account addresses.
*/
package keys
