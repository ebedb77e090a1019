package dbus

// IsVariant reports whether v is a variant-typed value, i.e. one
// whose payload type is only known at runtime. Use [Value.Variant] to
// retrieve the wrapped value.
func IsVariant(v Value) bool { return TypeOf(v).Kind == KindVariant }
