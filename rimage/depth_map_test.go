package rimage

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestDepthMapBasics(t *testing.T) {
	dm := NewEmptyDepthMap(4, 3)
	test.That(t, dm.Width(), test.ShouldEqual, 4)
	test.That(t, dm.Height(), test.ShouldEqual, 3)
	test.That(t, dm.HasData(), test.ShouldBeTrue)

	dm.Set(2, 1, 450.5)
	test.That(t, dm.GetDepth(2, 1), test.ShouldAlmostEqual, 450.5, .001)
	test.That(t, dm.Get(image.Point{2, 1}), test.ShouldAlmostEqual, 450.5, .001)
	test.That(t, dm.GetDepth(0, 0), test.ShouldEqual, 0)

	test.That(t, dm.In(0, 0), test.ShouldBeTrue)
	test.That(t, dm.In(3, 2), test.ShouldBeTrue)
	test.That(t, dm.In(4, 2), test.ShouldBeFalse)
	test.That(t, dm.In(3, 3), test.ShouldBeFalse)
	test.That(t, dm.In(-1, 0), test.ShouldBeFalse)
}

func TestDepthMapFromData(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	dm, err := NewDepthMapFromData(data, 3, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.GetDepth(0, 0), test.ShouldEqual, 1)
	test.That(t, dm.GetDepth(2, 0), test.ShouldEqual, 3)
	test.That(t, dm.GetDepth(0, 1), test.ShouldEqual, 4)
	test.That(t, dm.GetDepth(2, 1), test.ShouldEqual, 6)

	_, err = NewDepthMapFromData(data, 4, 2)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDepthMapClone(t *testing.T) {
	dm := NewEmptyDepthMap(2, 2)
	dm.Set(0, 0, 100)
	dm.Set(1, 1, 200)

	clone := dm.Clone()
	test.That(t, clone.GetDepth(0, 0), test.ShouldEqual, 100)
	test.That(t, clone.GetDepth(1, 1), test.ShouldEqual, 200)

	clone.Set(0, 0, 999)
	test.That(t, dm.GetDepth(0, 0), test.ShouldEqual, 100)
}

func TestIsValidDepth(t *testing.T) {
	test.That(t, IsValidDepth(0), test.ShouldBeFalse)
	test.That(t, IsValidDepth(-5), test.ShouldBeFalse)
	test.That(t, IsValidDepth(0.5), test.ShouldBeTrue)
	test.That(t, IsValidDepth(5000), test.ShouldBeTrue)
	test.That(t, IsValidDepth(MaxValidDepth), test.ShouldBeFalse)
	test.That(t, IsValidDepth(MaxValidDepth+1), test.ShouldBeFalse)
}

func TestDepthMapMinMax(t *testing.T) {
	dm := NewEmptyDepthMap(3, 3)
	min, max := dm.MinMax()
	test.That(t, min, test.ShouldEqual, 0)
	test.That(t, max, test.ShouldEqual, 0)

	dm.Set(0, 0, 350)
	dm.Set(1, 1, 1200)
	dm.Set(2, 2, MaxValidDepth+10) // invalid, ignored
	min, max = dm.MinMax()
	test.That(t, min, test.ShouldEqual, 350)
	test.That(t, max, test.ShouldEqual, 1200)
}
