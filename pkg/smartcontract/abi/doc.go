/*
Package abi implements the contract call encoding: method selectors and
head/tail encoding of arguments and return values for elementary types
(integers, address, bool, fixed and dynamic byte arrays, strings).

Contract interfaces are data, not generated code: a Contract is built from
method signatures or a compiler's JSON ABI and then used to pack call data
and to decode return data with strict shape checks.
*/
package abi
