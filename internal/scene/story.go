package scene

import "time"

// Story is the built-in seventeen second presentation.
var Story = MustTable([]Scene{
	{ID: 1, Start: 0, End: 2 * time.Second, Caption: "Every journey is different?", Visual: VisualCouple},
	{ID: 2, Start: 2 * time.Second, End: 4 * time.Second, Caption: "But some journeys test every bit of your strength.", Visual: VisualMother},
	{ID: 3, Start: 4 * time.Second, End: 7 * time.Second, Caption: "Sleepless nights. Fear. Prayers.", Visual: VisualEyes},
	{ID: 4, Start: 7 * time.Second, End: 9 * time.Second, Caption: "Yet? they never gave up.", Visual: VisualTransition},
	{ID: 5, Start: 9 * time.Second, End: 12 * time.Second, Caption: "Because this little life is their whole world.", Visual: VisualBaby},
	{ID: 6, Start: 12 * time.Second, End: 15 * time.Second, Caption: "Strong parents raise strong miracles.", Visual: VisualParents},
	{ID: 7, Start: 15 * time.Second, End: 17 * time.Second, Caption: "", Visual: VisualFade},
})
