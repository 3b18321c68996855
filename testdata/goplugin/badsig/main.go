package main

// Bootstrap has the wrong signature on purpose.
func Bootstrap() []string { return []string{"add"} }

func main() {}
