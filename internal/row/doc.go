// Package row defines the row model shared by every step: a Row is an ordered
// tuple of native Go values and a Meta describes its layout as an ordered list
// of ValueMeta field descriptors.
//
// A ValueMeta carries everything needed to turn text into a typed value and
// back: the semantic Type, a conversion mask (Java-style date patterns such as
// "yyyy/MM/dd" are accepted), length, precision, currency/decimal/grouping
// symbols and a trim policy.
//
// Native representations per Type:
//
//	String     string
//	Integer    int64
//	Number     float64
//	BigNumber  *big.Float
//	Boolean    bool
//	Date       time.Time
//	Timestamp  time.Time
//	Binary     []byte
//
// A nil element in a Row is a null value.
package row
