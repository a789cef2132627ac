package exemplar

// DefaultBank returns the built-in training set. The code and tests are
// plain Go declarations and statements in the form the interpreter
// sandbox evaluates, so they double as format exemplars for the model.
func DefaultBank() Bank {
	return Bank{
		{
			Task:          "A Go function to check if a number is prime",
			CodeSignature: "func isPrime(n int) bool",
			Code: `func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for i := 2; i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}`,
			Test1: `if !isPrime(7) {
	panic("expected 7 to be prime")
}`,
			Test2: `if isPrime(10) {
	panic("expected 10 not to be prime")
}`,
			EdgeCaseTest1: `if isPrime(1) {
	panic("expected 1 not to be prime")
}`,
		},
		{
			Task: "A Go Calculator type with Add, Subtract, Multiply and Divide methods",
			CodeSignature: `type Calculator struct{}

func (c Calculator) Add(a, b float64) float64
func (c Calculator) Subtract(a, b float64) float64
func (c Calculator) Multiply(a, b float64) float64
func (c Calculator) Divide(a, b float64) (float64, error)`,
			Code: `import "errors"

type Calculator struct{}

func (c Calculator) Add(a, b float64) float64      { return a + b }
func (c Calculator) Subtract(a, b float64) float64 { return a - b }
func (c Calculator) Multiply(a, b float64) float64 { return a * b }

func (c Calculator) Divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}`,
			Test1: `calc := Calculator{}
if got := calc.Add(2, 3); got != 5 {
	panic("expected Add(2, 3) to equal 5")
}
if got := calc.Subtract(10, 4); got != 6 {
	panic("expected Subtract(10, 4) to equal 6")
}`,
			Test2: `calc := Calculator{}
if got := calc.Multiply(4, 2.5); got != 10 {
	panic("expected Multiply(4, 2.5) to equal 10")
}
if got, err := calc.Divide(9, 3); err != nil || got != 3 {
	panic("expected Divide(9, 3) to equal 3")
}`,
			EdgeCaseTest1: `calc := Calculator{}
if _, err := calc.Divide(1, 0); err == nil {
	panic("expected an error dividing by zero")
}`,
		},
		{
			Task:          "A Go function to reverse a string",
			CodeSignature: "func reverseString(s string) string",
			Code: `func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}`,
			Test1: `if got := reverseString("hello"); got != "olleh" {
	panic("expected olleh, got " + got)
}`,
			Test2: `if got := reverseString("Go"); got != "oG" {
	panic("expected oG, got " + got)
}`,
			EdgeCaseTest1: `if got := reverseString(""); got != "" {
	panic("expected reversing the empty string to stay empty")
}`,
		},
		{
			Task:          "A Go function to calculate the sum of squares of a slice of numbers",
			CodeSignature: "func sumOfSquares(nums []int) int",
			Code: `func sumOfSquares(nums []int) int {
	total := 0
	for _, n := range nums {
		total += n * n
	}
	return total
}`,
			Test1: `if got := sumOfSquares([]int{1, 2, 3}); got != 14 {
	panic("expected sum of squares of 1,2,3 to equal 14")
}`,
			Test2: `if got := sumOfSquares([]int{0, 4}); got != 16 {
	panic("expected sum of squares of 0,4 to equal 16")
}`,
			EdgeCaseTest1: `if got := sumOfSquares([]int{}); got != 0 {
	panic("expected sum of squares of an empty slice to equal 0")
}`,
		},
	}
}
