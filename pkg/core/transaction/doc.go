/*
Package transaction contains transaction drafts (Request) and signed
immutable transactions (Transaction) along with their canonical encoding.

Legacy transactions are signed according to EIP-155 (replay protected with a
chain id), dynamic fee ones follow EIP-1559 and are encoded as EIP-2718 typed
envelopes. Access lists are not supported.
*/
package transaction
