package quiz

var StripCodeFenceForTest = stripCodeFence
