package body

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sixdof/internal/dynamo"
)

// symmetryTol is relative to the largest inertia component.
const symmetryTol = 1e-9

// Params holds the mass properties of a rigid vehicle. It is immutable after
// construction and safe to share between propagators.
type Params struct {
	mass       float64
	inertia    mgl64.Mat3
	inertiaInv mgl64.Mat3
}

// NewParams validates mass and the body-frame inertia tensor (row-major) and
// precomputes the inverse tensor.
func NewParams(mass float64, inertia [3][3]float64) (*Params, error) {
	if !(mass > 0) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("%w: mass must be positive and finite, got %v", dynamo.ErrInvalidParameters, mass)
	}

	scale := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := inertia[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: inertia[%d][%d] is not finite", dynamo.ErrInvalidParameters, i, j)
			}
			scale = math.Max(scale, math.Abs(v))
		}
	}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if math.Abs(inertia[i][j]-inertia[j][i]) > symmetryTol*scale {
				return nil, fmt.Errorf("%w: inertia is not symmetric at [%d][%d]", dynamo.ErrInvalidParameters, i, j)
			}
		}
	}

	sym := mat.NewSymDense(3, []float64{
		inertia[0][0], inertia[0][1], inertia[0][2],
		inertia[1][0], inertia[1][1], inertia[1][2],
		inertia[2][0], inertia[2][1], inertia[2][2],
	})

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("%w: inertia is not positive-definite", dynamo.ErrInvalidParameters)
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, fmt.Errorf("%w: inertia is not invertible: %v", dynamo.ErrInvalidParameters, err)
	}

	var invRows [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			invRows[i][j] = inv.At(i, j)
		}
	}

	return &Params{
		mass:       mass,
		inertia:    mat3FromRows(inertia),
		inertiaInv: mat3FromRows(invRows),
	}, nil
}

func (p *Params) Mass() float64 { return p.mass }

// Inertia returns the body-frame inertia tensor.
func (p *Params) Inertia() mgl64.Mat3 { return p.inertia }

func (p *Params) InertiaInverse() mgl64.Mat3 { return p.inertiaInv }

// InertiaRows returns the tensor in the row-major layout accepted by NewParams.
func (p *Params) InertiaRows() [3][3]float64 {
	var rows [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rows[i][j] = p.inertia.At(i, j)
		}
	}
	return rows
}

// mgl64 matrices are column-major.
func mat3FromRows(r [3][3]float64) mgl64.Mat3 {
	return mgl64.Mat3{
		r[0][0], r[1][0], r[2][0],
		r[0][1], r[1][1], r[2][1],
		r[0][2], r[1][2], r[2][2],
	}
}
