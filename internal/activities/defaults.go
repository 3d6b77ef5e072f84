package activities

func minutes(n int) *int { return &n }

// Default is the morning routine the tracker ships with.
func Default() *Catalog {
	return MustNew([]Definition{
		{
			ID: "wake_up", Name: "Sveglia", Icon: "clock", Shape: TimeOnly, Order: 1,
			MarksWakeUp: true,
			Fields:      Fields{Value: "wake_up_time", Quality: "sleep_quality"},
		},
		{
			ID: "weight", Name: "Peso", Icon: "scale", Shape: NumericValue, Order: 2,
			Fields: Fields{Value: "weight", Delta: "weight_delta"},
		},
		{
			ID: "water_coffee", Name: "Acqua + Caffè", Icon: "droplet", Shape: TimeOnly, Order: 3,
			Fields: Fields{Value: "water_coffee_start"},
		},
		{
			ID: "workout_prep", Name: "Prep Allenamento", Icon: "shirt", Shape: DurationRequired, Order: 4,
			Fields: Fields{Start: "workout_prep_start", End: "workout_prep_end"},
		},
		{
			ID: "workout", Name: "Allenamento", Icon: "dumbbell", Shape: DurationRequired, Order: 5,
			HasNotes: true, TargetMinutes: minutes(25),
			Fields: Fields{Start: "workout_start", End: "workout_end", Note: "workout_notes"},
		},
		{
			ID: "tidy_room", Name: "Riordino Stanza", Icon: "bed", Shape: DurationRequired, Order: 6,
			Fields: Fields{Start: "tidy_room_start", End: "tidy_room_end"},
		},
		{
			ID: "coffee_supps", Name: "Caffè + Integratori", Icon: "coffee", Shape: DurationRequired, Order: 7,
			Fields: Fields{Start: "coffee_supps_start", End: "coffee_supps_end"},
		},
		{
			ID: "shower", Name: "Doccia", Icon: "shower-head", Shape: DurationRequired, Order: 8,
			Fields: Fields{Start: "shower_start", End: "shower_end"},
		},
		{
			ID: "journal", Name: "Diario", Icon: "notebook-pen", Shape: DurationRequired, Order: 9,
			Fields: Fields{Start: "journal_start", End: "journal_end"},
		},
		{
			ID: "reading", Name: "Lettura Tecnica", Icon: "book-open", Shape: DurationRequired, Order: 10,
			HasNotes: true, TargetMinutes: minutes(10),
			Fields: Fields{Start: "reading_start", End: "reading_end", Note: "reading_notes"},
		},
		{
			ID: "lauds", Name: "Lodi", Icon: "hands-praying", Shape: DurationRequired, Order: 11,
			Fields: Fields{Start: "lauds_start", End: "lauds_end"},
		},
		{
			ID: "breakfast", Name: "Colazione", Icon: "utensils", Shape: DurationRequired, Order: 12,
			Fields: Fields{Start: "breakfast_start", End: "breakfast_end"},
		},
		{
			ID: "walk", Name: "Passeggiata", Icon: "footprints", Shape: DurationOptional, Order: 13,
			Optional: true, HasNotes: true,
			Fields: Fields{Start: "walk_start", End: "walk_end", Note: "walk_notes", Skip: "walk_skipped"},
		},
	})
}
