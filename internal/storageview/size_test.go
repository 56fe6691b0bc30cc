package storageview

import "testing"

func TestParseSizeExactWhenItFits(t *testing.T) {
	p := SizeParams{AvailableSize: 4_000_000_000}
	got, ok := ParseSize("2", "GB", p)
	if !ok {
		t.Fatalf("2 GB on a 4 GB device should validate")
	}
	if got != 2_000_000_000 {
		t.Fatalf("exact byte count: got %d", got)
	}
}

func TestParseSizeRejectsBeyondTolerance(t *testing.T) {
	p := SizeParams{AvailableSize: 4_000_000_000}
	if _, ok := ParseSize("4.1", "GB", p); ok {
		t.Fatalf("4.1 GB on a 4 GB device must be rejected")
	}
}

func TestParseSizeRoundedDisplayValueStillValidates(t *testing.T) {
	// The page displays 3.97 GB as "4 GB"; entering the displayed
	// value back must still validate against the exact byte count.
	p := SizeParams{AvailableSize: 3_970_000_000}
	got, ok := ParseSize("4", "GB", p)
	if !ok {
		t.Fatalf("rounded display value must validate")
	}
	if got > p.AvailableSize {
		t.Fatalf("clamped size %d exceeds available %d", got, p.AvailableSize)
	}
	if got%PartitionAlignment != 0 {
		t.Fatalf("clamped size %d not aligned", got)
	}
}

func TestParseSizeWholeDeviceReservesTableSpace(t *testing.T) {
	p := SizeParams{AvailableSize: 4_000_000_000}
	got, ok := ParseSize("4", "GB", p)
	if !ok {
		t.Fatalf("whole-device request should validate")
	}
	if got > p.AvailableSize-PartitionTableExtraSpace {
		t.Fatalf("table overhead not reserved: got %d", got)
	}
	if got%PartitionAlignment != 0 {
		t.Fatalf("whole-device size %d not aligned", got)
	}

	// With an existing partition the overhead was already paid.
	p.HasPartitions = true
	withParts, ok := ParseSize("4", "GB", p)
	if !ok || withParts <= got {
		t.Fatalf("existing partitions should not re-reserve table space: %d vs %d", withParts, got)
	}
}

func TestParseSizePpc64elReservesBootloaderRegion(t *testing.T) {
	generic := SizeParams{AvailableSize: 4_000_000_000, Architecture: "amd64/generic"}
	ppc := SizeParams{AvailableSize: 4_000_000_000, Architecture: "ppc64el/generic"}

	a, ok := ParseSize("4", "GB", generic)
	if !ok {
		t.Fatal("generic should validate")
	}
	b, ok := ParseSize("4", "GB", ppc)
	if !ok {
		t.Fatal("ppc64el should validate")
	}
	if a-b < PrepPartitionSize-PartitionAlignment {
		t.Fatalf("ppc64el must reserve the bootloader region: %d vs %d", a, b)
	}
}

func TestParseSizeRejectsBadInput(t *testing.T) {
	p := SizeParams{AvailableSize: 4_000_000_000}
	bad := []struct{ quantity, unit string }{
		{"", "GB"},
		{"  ", "GB"},
		{"abc", "GB"},
		{"2..5", "GB"},
		{"-1", "GB"},
		{"0", "GB"},
		{"2", "KB"},
		{"2", ""},
	}
	for _, c := range bad {
		if _, ok := ParseSize(c.quantity, c.unit, p); ok {
			t.Fatalf("ParseSize(%q, %q) should be rejected", c.quantity, c.unit)
		}
	}
}

func TestParseSizeRejectsBelowMinimum(t *testing.T) {
	p := SizeParams{AvailableSize: 4_000_000_000}
	if _, ok := ParseSize("1", "MB", p); ok {
		t.Fatalf("below minimum partition size must be rejected")
	}
}

func TestHumanSize(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{2_000_000_000, "2.0 GB"},
		{1_500_000, "1.5 MB"},
		{3_000_000_000_000, "3.0 TB"},
		{512, "512 bytes"},
	}
	for _, c := range cases {
		if got := HumanSize(c.bytes); got != c.want {
			t.Fatalf("HumanSize(%d) = %q, want %q", c.bytes, got, c.want)
		}
	}
}
