package effects

// Environment reads the whole environment.
func Environment[R, E any]() Effect[R, E, R] {
	return Effect[R, E, R]{op: &readOp{f: func(env any) instruction {
		return &succeedOp{value: as[R](env)}
	}}}
}

// Access reads a value derived from the environment.
func Access[R, E, A any](f func(R) A) Effect[R, E, A] {
	return Effect[R, E, A]{op: &readOp{f: func(env any) instruction {
		return &succeedOp{value: f(as[R](env))}
	}}}
}

// AccessM runs the effect derived from the environment.
func AccessM[R, E, A any](f func(R) Effect[R, E, A]) Effect[R, E, A] {
	return Effect[R, E, A]{op: &readOp{f: func(env any) instruction {
		return f(as[R](env)).op
	}}}
}

// Provide runs eff with env as its environment, whatever the surrounding environment R2.
// The previous environment is restored when eff ends, on every exit path.
func Provide[R2, R, E, A any](eff Effect[R, E, A], env R) Effect[R2, E, A] {
	return Effect[R2, E, A]{op: &provideOp{inner: eff.op, env: env}}
}
