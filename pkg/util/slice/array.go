/*
Package slice contains byte slice helpers.
*/
package slice

// Clean wipes the data in b by filling it with zeros. It's used for
// temporary copies of key material.
func Clean(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
